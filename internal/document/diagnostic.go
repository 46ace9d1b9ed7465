package document

import "fmt"

// DiagnosticKind classifies a tokenizer contract violation.
type DiagnosticKind uint8

const (
	// LineCountMismatch means the token stream and the text disagree on the
	// number of lines. Convert truncates to the shorter one.
	LineCountMismatch DiagnosticKind = iota
	// ReconstructionMismatch means a line's tokens do not spell the line.
	ReconstructionMismatch
)

func (k DiagnosticKind) String() string {
	switch k {
	case LineCountMismatch:
		return "line-count-mismatch"
	case ReconstructionMismatch:
		return "reconstruction-mismatch"
	default:
		return fmt.Sprintf("diagnostic(%d)", k)
	}
}

// Diagnostic describes a problem with the highlighter output. It is
// informational; the document is still usable.
type Diagnostic struct {
	Kind DiagnosticKind
	// Line is the zero-based line, or -1 for document-wide problems.
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	return d.Kind.String() + ": " + d.Message
}
