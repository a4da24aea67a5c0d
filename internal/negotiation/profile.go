package negotiation

import (
	"errors"
	"fmt"
	"strings"

	"ucphost/internal/capability"
	"ucphost/internal/payment"
)

// AgentHeader carries the platform profile URL on every request.
const AgentHeader = "UCP-Agent"

var (
	// ErrMissingProfile is returned when the agent header names no profile.
	ErrMissingProfile = errors.New("UCP-Agent header has no profile")
	// ErrMalformedAgentHeader is returned for unparsable agent headers.
	ErrMalformedAgentHeader = errors.New("malformed UCP-Agent header")
	// ErrInvalidProfile is returned when a fetched profile is not usable.
	ErrInvalidProfile = errors.New("invalid platform profile")
)

// Profile is a platform's published UCP profile. It shares the wire shape of
// this host's own discovery manifest.
type Profile struct {
	UCP ProfileMetadata `json:"ucp"`
}

// ProfileMetadata is the "ucp" block of a profile.
type ProfileMetadata struct {
	Version      string                  `json:"version"`
	Capabilities []capability.Descriptor `json:"capabilities"`
	Payment      *PaymentBlock           `json:"payment,omitempty"`
}

// PaymentBlock lists the payment handlers a party can work with.
type PaymentBlock struct {
	Handlers []payment.Declaration `json:"handlers"`
}

// Handlers returns the declared payment handlers, if any.
func (p *Profile) Handlers() []payment.Declaration {
	if p == nil || p.UCP.Payment == nil {
		return nil
	}
	return p.UCP.Payment.Handlers
}

// Validate checks the fields negotiation relies on.
func (p *Profile) Validate() error {
	if !capability.ValidVersion(p.UCP.Version) {
		return fmt.Errorf("%w: version %q", ErrInvalidProfile, p.UCP.Version)
	}
	for _, d := range p.UCP.Capabilities {
		if d.Name == "" {
			return fmt.Errorf("%w: capability without name", ErrInvalidProfile)
		}
	}
	return nil
}

// ParseAgentHeader extracts the profile URL from a UCP-Agent header value.
// The value is a structured-field dictionary such as:
//
//	profile="https://platform.example/.well-known/ucp", version="2026-01-11"
func ParseAgentHeader(value string) (string, error) {
	for member := range strings.SplitSeq(value, ",") {
		member = strings.TrimSpace(member)
		if member == "" {
			continue
		}
		key, raw, ok := strings.Cut(member, "=")
		if !ok {
			continue
		}
		if strings.TrimSpace(key) != "profile" {
			continue
		}
		url, err := unquote(strings.TrimSpace(raw))
		if err != nil {
			return "", err
		}
		if url == "" {
			return "", ErrMissingProfile
		}
		return url, nil
	}
	return "", ErrMissingProfile
}

// unquote decodes a structured-field string.
func unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("%w: profile must be a quoted string", ErrMalformedAgentHeader)
	}
	var b strings.Builder
	body := s[1 : len(s)-1]
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch c {
		case '\\':
			i++
			if i == len(body) || (body[i] != '"' && body[i] != '\\') {
				return "", fmt.Errorf("%w: invalid escape", ErrMalformedAgentHeader)
			}
			b.WriteByte(body[i])
		case '"':
			return "", fmt.Errorf("%w: unescaped quote", ErrMalformedAgentHeader)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
