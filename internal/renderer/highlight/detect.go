package highlight

import (
	"path/filepath"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/go-enry/go-enry/v2"
)

// DetectLanguage guesses the language of a file from its name and content.
// It returns a name chroma can resolve, or "" when nothing matched.
func DetectLanguage(filename string, content []byte) string {
	base := filepath.Base(filename)

	if lang := enry.GetLanguage(base, content); lang != "" {
		if lexer := lexers.Get(lang); lexer != nil {
			return lexer.Config().Name
		}
	}

	if base != "" && base != "." {
		if lexer := lexers.Match(base); lexer != nil {
			return lexer.Config().Name
		}
	}

	if len(content) > 0 {
		if lexer := lexers.Analyse(string(content)); lexer != nil {
			return lexer.Config().Name
		}
	}

	return ""
}
