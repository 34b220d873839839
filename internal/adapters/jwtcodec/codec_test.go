package jwtcodec

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/abtime"
	domainauth "github.com/target/itemvault/internal/domain/auth"
)

const testSecret = "test-secret"

var epoch = time.Unix(1_700_000_000, 0).UTC()

func newTestCodec(t *testing.T) (*Codec, *abtime.ManualTime) {
	t.Helper()
	clock := abtime.NewManualAtTime(epoch)
	c, err := New(Options{Secret: testSecret, TTL: time.Hour, Clock: clock})
	require.NoError(t, err)
	return c, clock
}

func aliceIdentity() domainauth.Identity {
	return domainauth.Identity{Subject: "3f0c5a4e-1111-4c8e-9a57-2e9e3e0c0001", Username: "alice", Role: domainauth.RoleUser}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)

	_, err = New(Options{Secret: "s", TTL: -time.Second})
	require.Error(t, err)

	c, err := New(Options{Secret: "s"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, c.TTL())
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	c, _ := newTestCodec(t)

	token, issued, err := c.Encode(aliceIdentity())
	require.NoError(t, err)
	assert.Equal(t, epoch, issued.IssuedAt)
	assert.Equal(t, epoch.Add(time.Hour), issued.ExpiresAt)

	got, err := c.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "3f0c5a4e-1111-4c8e-9a57-2e9e3e0c0001", got.Subject)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, domainauth.RoleUser, got.Role)
	assert.True(t, got.IssuedAt.Equal(epoch))
	assert.True(t, got.ExpiresAt.Equal(epoch.Add(time.Hour)))
}

func TestEncode_RejectsIncompleteIdentity(t *testing.T) {
	c, _ := newTestCodec(t)

	_, _, err := c.Encode(domainauth.Identity{Username: "x", Role: domainauth.RoleUser})
	require.Error(t, err)

	_, _, err = c.Encode(domainauth.Identity{Subject: "1", Role: "root"})
	require.ErrorIs(t, err, domainauth.ErrUnknownRole)
}

func TestDecode_ExpiryBoundary(t *testing.T) {
	c, clock := newTestCodec(t)
	token, _, err := c.Encode(aliceIdentity())
	require.NoError(t, err)

	clock.Advance(time.Hour - time.Second)
	_, err = c.Decode(token)
	require.NoError(t, err, "token must be valid one second before expiry")

	clock.Advance(time.Second)
	_, err = c.Decode(token)
	require.ErrorIs(t, err, ErrInvalidToken, "token must be invalid exactly at expiry")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	clock.Advance(time.Hour)
	_, err = c.Decode(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_TamperedBytes(t *testing.T) {
	c, _ := newTestCodec(t)
	token, _, err := c.Encode(aliceIdentity())
	require.NoError(t, err)

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for i := range len(token) {
		b := []byte(token)
		if b[i] == '.' {
			b[i] = 'A'
		} else {
			idx := strings.IndexByte(alphabet, b[i])
			require.GreaterOrEqual(t, idx, 0)
			// Flip the high bit of the sextet; it is significant in every position.
			b[i] = alphabet[idx^0x20]
		}

		_, err := c.Decode(string(b))
		require.ErrorIsf(t, err, ErrInvalidToken, "mutation at byte %d was accepted", i)
	}
}

func TestDecode_WrongSecret(t *testing.T) {
	c, _ := newTestCodec(t)
	other, err := New(Options{Secret: "other-secret", Clock: abtime.NewManualAtTime(epoch)})
	require.NoError(t, err)

	token, _, err := other.Encode(aliceIdentity())
	require.NoError(t, err)

	_, err = c.Decode(token)
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestDecode_RejectsForeignAlgorithms(t *testing.T) {
	c, _ := newTestCodec(t)
	cl := claims{
		Username: "alice",
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour)),
		},
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, cl).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = c.Decode(none)
	require.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, cl).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = c.Decode(hs512)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_RequiresClaims(t *testing.T) {
	c, _ := newTestCodec(t)
	sign := func(cl claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}
	exp := jwt.NewNumericDate(epoch.Add(time.Hour))

	tests := map[string]claims{
		"no exp":       {Role: "user", RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}},
		"no subject":   {Role: "user", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}},
		"unknown role": {Role: "root", RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: exp}},
		"empty role":   {RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: exp}},
	}
	for name, cl := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decode(sign(cl))
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	c, _ := newTestCodec(t)
	for _, tok := range []string{"", "abc", "a.b.c", "a.b"} {
		_, err := c.Decode(tok)
		require.ErrorIs(t, err, ErrInvalidToken, tok)
	}
}
