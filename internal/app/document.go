package app

import (
	"os"
	"path/filepath"

	"github.com/dshills/tintview/internal/document"
	"github.com/dshills/tintview/internal/renderer/highlight"
)

// Source names the text to view: a file, or in-memory text when Path is
// empty.
type Source struct {
	// Path is the file to read. It is re-read on every reload.
	Path string

	// Text is used when Path is empty.
	Text string
}

// Name is the display name of the source.
func (s Source) Name() string {
	if s.Path == "" {
		return "<builtin>"
	}
	return filepath.Base(s.Path)
}

// documentLoader builds documents from a Source. The language is resolved
// on the first load and kept for reloads so the colouring does not flip
// while the file is being edited.
type documentLoader struct {
	source   Source
	language string
	theme    *highlight.Theme
	readFile func(string) ([]byte, error)

	resolved string
}

func newDocumentLoader(source Source, language string, theme *highlight.Theme) *documentLoader {
	return &documentLoader{
		source:   source,
		language: language,
		theme:    theme,
		readFile: os.ReadFile,
	}
}

// Load reads the source and highlights it into a new document.
func (l *documentLoader) Load() (*document.Document, error) {
	text := l.source.Text
	if l.source.Path != "" {
		data, err := l.readFile(l.source.Path)
		if err != nil {
			return nil, NewOperationError("read", l.source.Path, err)
		}
		text = string(data)
	}

	if l.resolved == "" {
		l.resolved = l.language
		if l.resolved == "" {
			l.resolved = highlight.DetectLanguage(l.source.Path, []byte(text))
		}
		if l.resolved == "" {
			l.resolved = "text"
		}
	}

	h, err := highlight.New(l.resolved, l.theme)
	if err != nil {
		return nil, NewOperationError("highlight", l.source.Name(), err)
	}

	doc, err := document.New(text, h)
	if err != nil {
		return nil, NewOperationError("highlight", l.source.Name(), err)
	}
	return doc, nil
}

// Language returns the language chosen by the first Load.
func (l *documentLoader) Language() string { return l.resolved }
