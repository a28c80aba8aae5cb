package markdown

import (
	"strings"
	"unicode/utf8"
)

// WordCount returns the length of text in characters.
// Despite the name it counts runes, which is what the editor status bar shows.
func WordCount(text string) int {
	return utf8.RuneCountInString(text)
}

var fileNameReplacer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_",
	"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
)

// SanitizeFileName replaces characters that are unsafe in file names with '_'.
func SanitizeFileName(name string) string {
	return fileNameReplacer.Replace(name)
}
