package capability

import (
	"errors"
	"fmt"
)

// Configuration error kinds. Build returns a *ConfigError wrapping one of these.
var (
	ErrInvalidVersionFormat         = errors.New("invalid capability version format")
	ErrMultipleBusinessIdentities   = errors.New("multiple business identities")
	ErrMultipleCapabilityProviders  = errors.New("multiple capability providers")
	ErrTransportRequirementViolated = errors.New("transport requirement violated")
)

// ConfigError is a fatal registry build failure. It is never retried and the
// host must not serve traffic after receiving one.
type ConfigError struct {
	Kind   error
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *ConfigError) Unwrap() error {
	return e.Kind
}

func configError(kind error, format string, args ...any) *ConfigError {
	return &ConfigError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
