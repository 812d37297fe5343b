package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/apperr"
)

func TestEmail(t *testing.T) {
	for _, ok := range []string{"alice@x.com", "a.b+c@sub.example.org"} {
		v := New()
		v.Email(ok)
		assert.True(t, v.Valid(), ok)
	}
	for _, bad := range []string{"", "alice", "alice@x", "@x.com", "a b@x.com"} {
		v := New()
		v.Email(bad)
		assert.False(t, v.Valid(), bad)
	}
}

func TestUsername(t *testing.T) {
	v := New()
	v.Username("alice_01.b-c")
	assert.True(t, v.Valid())

	v = New()
	v.Username("alice smith")
	assert.Contains(t, v.Errors, "username")
}

func TestPassword(t *testing.T) {
	v := New()
	v.Password("password1")
	assert.True(t, v.Valid())

	v = New()
	v.Password("short")
	assert.Equal(t, "must be at least 8 characters", v.Errors["password"])

	v = New()
	v.Password(strings.Repeat("x", 73))
	assert.Equal(t, "must be at most 72 bytes", v.Errors["password"])
}

func TestErr(t *testing.T) {
	v := New()
	require.NoError(t, v.Err("invalid input"))

	v.Check(false, "name", "must be provided")
	err := v.Err("invalid input")
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "name must be provided", apperr.Message(err))

	v.Check(false, "email", "must be a valid email address")
	err = v.Err("invalid input")
	assert.Equal(t, "invalid input", apperr.Message(err))
	assert.Len(t, apperr.Fields(err), 2)
}

func TestCheckKeepsFirstMessage(t *testing.T) {
	v := New()
	v.Check(false, "k", "first")
	v.Check(false, "k", "second")
	assert.Equal(t, "first", v.Errors["k"])
}

func TestMaxLength(t *testing.T) {
	v := New()
	v.MaxLength(strings.Repeat("é", 30), 30, "name")
	assert.True(t, v.Valid())
	v.MaxLength(strings.Repeat("é", 31), 30, "name")
	assert.Equal(t, "must not be longer than 30 characters", v.Errors["name"])
}
