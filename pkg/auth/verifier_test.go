package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerifier(t *testing.T) {
	v, err := NewVerifier("hunter2")
	require.NoError(t, err)
	require.NotNil(t, v)
}

func TestNewVerifierEmptySecret(t *testing.T) {
	_, err := NewVerifier("")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	v, err := NewVerifier("correct horse battery staple")
	require.NoError(t, err)

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"exact match", "correct horse battery staple", true},
		{"wrong passphrase", "incorrect horse", false},
		{"empty candidate", "", false},
		{"trailing newline not stripped here", "correct horse battery staple\n", false},
		{"case sensitive", "Correct horse battery staple", false},
		{"prefix only", "correct horse", false},
		{"oversized candidate", strings.Repeat("a", 4096), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Verify([]byte(tt.candidate)))
		})
	}
}

func TestVerifyDigestIsNotTheSecret(t *testing.T) {
	// Feeding the verifier its own digest must not authenticate.
	v, err := NewVerifier("hunter2")
	require.NoError(t, err)
	assert.False(t, v.Verify(v.digest[:]))
}
