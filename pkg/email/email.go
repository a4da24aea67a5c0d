package email

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalid is returned for addresses that are not a bare addr-spec.
var ErrInvalid = errors.New("invalid email address")

// Normalize parses addr as a bare RFC 5322 addr-spec and returns it with
// surrounding space trimmed and the domain lower-cased. Display-name forms
// such as "Ann <ann@example.com>" are rejected.
func Normalize(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Name != "" || parsed.Address != addr {
		return "", ErrInvalid
	}

	at := strings.LastIndexByte(addr, '@')
	if at <= 0 || !strings.Contains(addr[at+1:], ".") {
		return "", ErrInvalid
	}
	return addr[:at] + "@" + strings.ToLower(addr[at+1:]), nil
}

// Valid reports whether addr normalizes cleanly.
func Valid(addr string) bool {
	_, err := Normalize(addr)
	return err == nil
}
