package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faves_sorter/internal/domain"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.Sign("user-1")
	require.NoError(t, err)

	sub, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issued }

	token, err := issuer.Sign("user-1")
	require.NoError(t, err)

	issuer.now = func() time.Time { return issued.Add(time.Hour) }
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestTokenIssuer_RejectsGarbage(t *testing.T) {
	_, err := NewTokenIssuer("secret", time.Hour).Verify("not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		domain.NewValidationError("x"): 400,
		domain.NewInvalidIDError("x"):  400,
		domain.ErrNotFound:             404,
		domain.ErrInconsistentState:    404,
		domain.ErrUnauthenticated:      401,
		domain.ErrRemote:               502,
		assert.AnError:                 500,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}
