// Package sanitize provides HTML sanitization for blog content. Uses
// bluemonday to strip dangerous HTML (script tags, event handlers,
// javascript: URLs) while preserving the formatting tags the blog editor
// produces. All article HTML passes through here before it is returned to
// clients, whether it was authored as HTML or rendered from markdown.
package sanitize

import (
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday policy for blog content.
// Initialized once via sync.Once for thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.NewPolicy()

		// Formatting and structure tags the editor produces.
		policy.AllowElements(
			"a", "b", "i", "em", "strong", "u", "p", "br",
			"ul", "ol", "li", "blockquote",
			"h1", "h2", "h3", "h4", "h5", "h6",
			"img", "pre", "code", "hr",
			"table", "thead", "tbody", "tr", "th", "td",
		)

		// Links: no javascript: or other active schemes. mailto is allowed
		// for contact links in posts.
		policy.AllowAttrs("href", "name", "target", "rel").OnElements("a")
		policy.AllowURLSchemes("http", "https", "mailto", "data")
		policy.RequireParseableURLs(true)

		// Images may come from the CDN or be inlined as data URIs.
		policy.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")

		// target=_blank links get rel=noopener added automatically.
		policy.RequireNoFollowOnLinks(false)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
	})
	return policy
}

// HTML sanitizes blog HTML content by stripping dangerous elements (script,
// iframe, event handlers, javascript: URLs) while preserving the allowed
// formatting tags. The output is safe to serve to browsers as-is.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	return getPolicy().Sanitize(input)
}

// excerptTagRe matches any HTML tag, used when reducing content to plain text.
var excerptTagRe = regexp.MustCompile(`<[^>]*>`)

// PlainText strips all markup from sanitized HTML, for excerpts and search
// indexing. Run HTML() first; this does no security filtering of its own.
func PlainText(input string) string {
	if input == "" {
		return ""
	}
	return excerptTagRe.ReplaceAllString(input, "")
}
