package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewKey(t *testing.T) {
	assert.Equal(t, "rl:read:192.0.2.1", NewKey(ClassRead, "192.0.2.1"))
	assert.Equal(t, "rl:payment:2001_db8__1", NewKey(ClassPayment, "2001:db8::1"))
	assert.Equal(t, "rl:read:a_write_b", NewKey(ClassRead, "a:write:b"))
}

func TestEndpointClassIsValid(t *testing.T) {
	for _, c := range []EndpointClass{ClassRead, ClassWrite, ClassPayment, ClassIdentity} {
		assert.True(t, c.IsValid(), c)
	}
	assert.False(t, EndpointClass("admin").IsValid())
}

func TestDenied(t *testing.T) {
	now := time.Date(2026, 1, 11, 12, 0, 0, 0, time.UTC)

	r := Denied(10, now, now.Add(1500*time.Millisecond))
	assert.False(t, r.Allowed)
	assert.Equal(t, 10, r.Limit)
	assert.Equal(t, 0, r.Remaining)
	assert.Equal(t, 2, r.RetryAfter)

	r = Denied(10, now, now)
	assert.Equal(t, 1, r.RetryAfter)
}
