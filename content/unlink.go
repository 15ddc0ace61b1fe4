package content

import "regexp"

// Zero-width space. Invisible, but enough to defeat the host page's
// auto-linking of mentions, hashtags and URLs.
const zws = "​"

var (
	sigilPattern = regexp.MustCompile(`([@#])(\w)`)
	dotPattern   = regexp.MustCompile(`\.(\S)`)
)

// UnlinkText breaks auto-linking in text without changing how it renders: a
// zero-width space is inserted after @ and # sigils and behind dots that sit
// inside URL-looking tokens.
func UnlinkText(text string) string {
	text = sigilPattern.ReplaceAllString(text, "$1"+zws+"$2")
	return dotPattern.ReplaceAllString(text, "."+zws+"$1")
}
