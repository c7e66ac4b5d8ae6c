// Package services – content sanitization shared by messaging and call
// notes.
package services

import (
	"regexp"
	"strings"
)

// scriptBlockRE and iframeBlockRE match an opening tag through its matching
// closing tag, case-insensitively, across newlines.
var (
	scriptBlockRE = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	iframeBlockRE = regexp.MustCompile(`(?is)<iframe[^>]*>.*?</iframe>`)
)

// sanitizeContent strips <script> and <iframe> blocks from user-supplied
// text and trims surrounding whitespace.
//
// This is a defense-in-depth filter, not a full HTML sanitizer: it does not
// neutralize all injection vectors (attribute-based payloads such as
// onerror= pass through). Rendering clients must still escape output.
func sanitizeContent(content string) string {
	if content == "" {
		return ""
	}
	content = scriptBlockRE.ReplaceAllString(content, "")
	content = iframeBlockRE.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}
