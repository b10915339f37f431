package render

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// MarkupKey is the render tree property holding pre-rendered HTML.
const MarkupKey = "#markup"

var (
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

// SanitizeMarkup cleans HTML carried in "#markup" properties so it can be
// emitted without escaping. Scripts, event handlers and unsafe URLs are
// removed; common formatting and links survive.
func SanitizeMarkup(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(markupSanitizer().Sanitize(trimmed))
}

func markupSanitizer() *bluemonday.Policy {
	markupPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").Globally()
		policy.RequireNoFollowOnLinks(false)
		markupPolicy = policy
	})
	return markupPolicy
}
