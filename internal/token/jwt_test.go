package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/blogauth-server/internal/model"
)

func newTestJWT() *JWT {
	return NewJWT("secret", 10*time.Second, 20*time.Second)
}

func TestJWT_AccessToken_Roundtrip(t *testing.T) {
	j := newTestJWT()
	u := uuid.New()

	access, err := j.GenerateAccessToken(u)
	require.NoError(t, err)
	got, err := j.ParseAccessToken(access)
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestJWT_RefreshToken_Roundtrip(t *testing.T) {
	j := newTestJWT()
	u := uuid.New()

	refresh, err := j.GenerateRefreshToken(model.RefreshClaims{UserID: u, DeviceID: "device-1", TokenID: "tid-1"})
	require.NoError(t, err)

	claims, err := j.ParseRefreshToken(refresh)
	require.NoError(t, err)
	require.Equal(t, u, claims.UserID)
	require.Equal(t, "device-1", claims.DeviceID)
	require.Equal(t, "tid-1", claims.TokenID)
	require.WithinDuration(t, claims.IssuedAt.Add(20*time.Second), claims.ExpiresAt, time.Second)
}

func TestJWT_RefreshToken_RequiresDevice(t *testing.T) {
	j := newTestJWT()

	_, err := j.GenerateRefreshToken(model.RefreshClaims{UserID: uuid.New(), TokenID: "tid"})
	require.Error(t, err)
}

func TestJWT_RefreshToken_GeneratesTokenID(t *testing.T) {
	j := newTestJWT()
	u := uuid.New()

	first, err := j.GenerateRefreshToken(model.RefreshClaims{UserID: u, DeviceID: "d"})
	require.NoError(t, err)
	second, err := j.GenerateRefreshToken(model.RefreshClaims{UserID: u, DeviceID: "d"})
	require.NoError(t, err)

	a, err := j.ParseRefreshToken(first)
	require.NoError(t, err)
	b, err := j.ParseRefreshToken(second)
	require.NoError(t, err)

	require.NotEmpty(t, a.TokenID)
	require.NotEmpty(t, b.TokenID)
	require.NotEqual(t, a.TokenID, b.TokenID)
	require.Equal(t, 20*time.Second, j.RefreshTTL())
}

func TestJWT_TokenType_Mismatch(t *testing.T) {
	j := newTestJWT()
	u := uuid.New()

	access, err := j.GenerateAccessToken(u)
	require.NoError(t, err)

	_, err = j.ParseRefreshToken(access)
	require.ErrorIs(t, err, model.ErrTokenMalformed)

	refresh, err := j.GenerateRefreshToken(model.RefreshClaims{UserID: u, DeviceID: "d", TokenID: "t"})
	require.NoError(t, err)

	_, err = j.ParseAccessToken(refresh)
	require.ErrorIs(t, err, model.ErrTokenMalformed)
}

func TestJWT_ExpiryValidation(t *testing.T) {
	j := newTestJWT()
	u := uuid.New()

	j.now = func() time.Time { return time.Now().Add(-time.Minute) }
	access, err := j.GenerateAccessToken(u)
	require.NoError(t, err)
	refresh, err := j.GenerateRefreshToken(model.RefreshClaims{UserID: u, DeviceID: "d", TokenID: "t"})
	require.NoError(t, err)
	j.now = time.Now

	_, err = j.ParseAccessToken(access)
	require.ErrorIs(t, err, model.ErrTokenExpired)

	_, err = j.ParseRefreshToken(refresh)
	require.ErrorIs(t, err, model.ErrTokenExpired)
}

func TestJWT_SignatureValidation(t *testing.T) {
	issuer := NewJWT("other-secret", time.Minute, time.Minute)
	verifier := newTestJWT()
	u := uuid.New()

	access, err := issuer.GenerateAccessToken(u)
	require.NoError(t, err)

	_, err = verifier.ParseAccessToken(access)
	require.ErrorIs(t, err, model.ErrTokenSignature)
	require.NotErrorIs(t, err, model.ErrTokenMalformed)
}

func TestJWT_WrongAlgorithm(t *testing.T) {
	verifier := newTestJWT()

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
		UserID:           uuid.New(),
		TokenType:        typeAccess,
	})
	s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = verifier.ParseAccessToken(s)
	require.ErrorIs(t, err, model.ErrTokenSignature)
}

func TestJWT_Malformed(t *testing.T) {
	j := newTestJWT()

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-token"},
		{name: "two segments", token: "aaa.bbb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := j.ParseAccessToken(tt.token)
			require.ErrorIs(t, err, model.ErrTokenMalformed)

			_, err = j.ParseRefreshToken(tt.token)
			require.ErrorIs(t, err, model.ErrTokenMalformed)
		})
	}
}

func TestJWT_RefreshToken_MissingBindingIsMalformed(t *testing.T) {
	j := newTestJWT()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
		UserID:           uuid.New(),
		TokenType:        typeRefresh,
	})
	s, err := tok.SignedString(j.secretKey)
	require.NoError(t, err)

	_, err = j.ParseRefreshToken(s)
	require.ErrorIs(t, err, model.ErrTokenMalformed)
}
