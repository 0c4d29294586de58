package codec

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// MarkupMessage is reported by the sanitized codec when raw input carries
// markup the policy would strip.
const MarkupMessage = "Markup is not allowed"

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

func defaultPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// SanitizedCodec yields plain text stripped of markup.
type SanitizedCodec struct {
	policy *bluemonday.Policy
}

// Sanitized builds a text codec backed by a bluemonday policy. A nil policy
// uses bluemonday.StrictPolicy, which removes every element.
func Sanitized(policy *bluemonday.Policy) *SanitizedCodec {
	if policy == nil {
		policy = defaultPolicy()
	}
	return &SanitizedCodec{policy: policy}
}

func (c *SanitizedCodec) clean(raw string) string {
	cleaned := c.policy.Sanitize(strings.TrimSpace(raw))
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// Parse returns the sanitised text. Input whose sanitised form would change
// again when re-parsed, such as escaped markup, fails with ErrConversion.
func (c *SanitizedCodec) Parse(raw string) (any, error) {
	cleaned := c.clean(raw)
	if c.clean(cleaned) != cleaned {
		return nil, fmt.Errorf("%w: sanitised text %q is not stable", ErrConversion, cleaned)
	}
	return cleaned, nil
}

// Render returns string values unchanged.
func (c *SanitizedCodec) Render(value any) string {
	s, _ := value.(string)
	return s
}

// ValidateRaw rejects raw input the policy would alter.
func (c *SanitizedCodec) ValidateRaw(raw string) string {
	if c.clean(raw) != strings.TrimSpace(raw) {
		return MarkupMessage
	}
	return ""
}
