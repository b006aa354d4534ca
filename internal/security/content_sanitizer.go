// Package security holds input hardening applied before content is stored.
package security

import "github.com/microcosm-cc/bluemonday"

// ContentSanitizer strips unsafe markup from text block bodies produced by
// the rich-text editor.
type ContentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer builds a sanitizer on bluemonday's user generated
// content policy: formatting, lists, tables, links and images are kept;
// scripts, iframes, styles and on* attributes are removed. Links get
// rel="nofollow noopener" and open in a new tab.
func NewContentSanitizer() *ContentSanitizer {
	p := bluemonday.UGCPolicy()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoFollowOnLinks(true)
	return &ContentSanitizer{policy: p}
}

// Sanitize returns the safe form of rawHTML. Plain text is returned with
// HTML special characters escaped.
func (s *ContentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
