// Package langdetect names the language of a file from its path and content.
package langdetect

import (
	"path"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Markdown is the language name reported for Markdown files.
const Markdown = "Markdown"

// Detect returns the language of a file, or "" when it cannot tell.
// Exact filenames win over extensions, which win over content.
func Detect(filePath, content string) string {
	name := path.Base(filePath)
	if lang, safe := enry.GetLanguageByFilename(name); safe && lang != "" {
		return lang
	}
	if lang, safe := enry.GetLanguageByExtension(name); safe && lang != "" {
		return lang
	}
	if strings.HasPrefix(content, "#!") {
		if lang, safe := enry.GetLanguageByShebang([]byte(content)); safe && lang != "" {
			return lang
		}
	}
	return enry.GetLanguage(name, []byte(content))
}

// IsMarkdown reports whether a file should be rendered as Markdown. The
// extension alone decides, even where it is shared with other languages.
func IsMarkdown(filePath string) bool {
	for _, lang := range enry.GetLanguagesByExtension(path.Base(filePath), nil, nil) {
		if lang == Markdown {
			return true
		}
	}
	return false
}

// IsVendor reports whether a path looks like generated or third-party code.
func IsVendor(filePath string) bool {
	return enry.IsVendor(strings.TrimPrefix(filePath, "/"))
}
