package notifications

import (
	"regexp"
	"strings"
)

// Longer tokens first so "**" is not eaten as two "*".
var markdownTokens = strings.NewReplacer(
	"**", "",
	"*", "",
	"##", "",
	"#", "",
	"`", "",
)

// StripMarkdown removes the markdown tokens used by the digest renderer
// for channels that expect plain text.
func StripMarkdown(s string) string {
	return markdownTokens.Replace(s)
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// CollapseWhitespace flattens all runs of whitespace, including
// newlines, into single spaces.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}
