package auth

import (
	errs "chat-relay/errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "correct-horse-battery"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	// Negative comparison (wrong password)
	match, err = ComparePassword("wrong-password", hash)
	req.NoError(err)
	req.False(match)

	_, err = ComparePassword(password, "not-an-encoded-hash")
	req.Error(err)
}

func TestCredentialsValidation(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{"Valid credentials", Credentials{"bob", "secret1"}, false},
		{"Username too short", Credentials{"bo", "secret1"}, true},
		{"Username missing", Credentials{"", "secret1"}, true},
		{"Password too short", Credentials{"bob", "abc"}, true},
		{"Password missing", Credentials{"bob", ""}, true},
		{"Password too long (edge case)", Credentials{"bob", strings.Repeat("a", 73)}, true},
		{"Username too long", Credentials{strings.Repeat("b", 33), "secret1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.creds)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	req := require.New(t)
	authority := NewTokenAuthority("test-secret", time.Hour)

	token, err := authority.Generate("bob", []string{"user"})
	req.NoError(err)

	identity, err := authority.Verify(token)
	req.NoError(err)
	req.Equal("bob", identity)
}

func TestTokenRejections(t *testing.T) {
	req := require.New(t)
	authority := NewTokenAuthority("test-secret", time.Hour)

	// Garbage input
	_, err := authority.Verify("not-a-token")
	req.ErrorIs(err, errs.ErrInvalidCredential)

	// Signed with a different key
	other := NewTokenAuthority("other-secret", time.Hour)
	token, err := other.Generate("bob", []string{"user"})
	req.NoError(err)
	_, err = authority.Verify(token)
	req.ErrorIs(err, errs.ErrInvalidCredential)

	// Expired
	expired := NewTokenAuthority("test-secret", -time.Minute)
	token, err = expired.Generate("bob", []string{"user"})
	req.NoError(err)
	_, err = authority.Verify(token)
	req.ErrorIs(err, errs.ErrInvalidCredential)
}

// BenchmarkHashPassword measures the CPU/RAM cost of one registration.
func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("a-long-enough-password-for-bench")
	}
}
