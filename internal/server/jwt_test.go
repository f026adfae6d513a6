package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pose-coach/internal/config"
)

const testJWTSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func setupTestJWTService(_ *testing.T, expirationHours int) *JWTService {
	return NewJWTService(&config.JWTConfig{
		Secret:          testJWTSecret,
		ExpirationHours: expirationHours,
		Issuer:          config.DefaultJWTIssuer,
	})
}

// signClaims signs arbitrary claims with the test secret.
func signClaims(t *testing.T, claims jwt.Claims, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func TestJWTService_GenerateToken(t *testing.T) {
	service := setupTestJWTService(t, 24)

	token, expiresAt, err := service.GenerateToken("author")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parts := strings.Split(token, ".")
	assert.Len(t, parts, 3, "JWT should have 3 parts separated by dots")
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)
}

func TestJWTService_GenerateToken_EmptyAuthor(t *testing.T) {
	service := setupTestJWTService(t, 24)
	_, _, err := service.GenerateToken("")
	assert.Error(t, err)
}

func TestJWTService_ValidateToken_Success(t *testing.T) {
	service := setupTestJWTService(t, 24)

	token, _, err := service.GenerateToken("ana")
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims)

	subject, err := claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "ana", subject)
	assert.Equal(t, RoleAuthor, claims.Role)
	assert.Equal(t, config.DefaultJWTIssuer, claims.Issuer)
	assert.NotNil(t, claims.ExpiresAt)
	assert.NotNil(t, claims.IssuedAt)
}

func TestJWTService_ValidateToken_InvalidSignature(t *testing.T) {
	service1 := setupTestJWTService(t, 24)
	service2 := setupTestJWTService(t, 24)
	service2.config.Secret = "different-secret-key-for-jwt-signing-minimum-32-bytes"

	token, _, err := service1.GenerateToken("author")
	require.NoError(t, err)

	claims, err := service2.ValidateToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
	assert.Contains(t, err.Error(), "signature")
}

func TestJWTService_ValidateToken_MalformedToken(t *testing.T) {
	service := setupTestJWTService(t, 24)

	for _, token := range []string{
		"",
		"invalid",
		"invalid.token",
		"invalid.token.format.extra",
		"invalid.base64.signature",
	} {
		t.Run(token, func(t *testing.T) {
			claims, err := service.ValidateToken(token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTService_ValidateToken_Expired(t *testing.T) {
	service := setupTestJWTService(t, 24)
	past := time.Now().Add(-2 * time.Hour)

	token := signClaims(t, &Claims{
		Role: RoleAuthor,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "author",
			Issuer:    config.DefaultJWTIssuer,
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(past),
		},
	}, jwt.SigningMethodHS256)

	claims, err := service.ValidateToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
	assert.Contains(t, err.Error(), "expired")
}

func TestJWTService_ValidateToken_RejectsClaims(t *testing.T) {
	service := setupTestJWTService(t, 24)
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		claims *Claims
		method jwt.SigningMethod
	}{
		{
			name: "wrong issuer",
			claims: &Claims{Role: RoleAuthor, RegisteredClaims: jwt.RegisteredClaims{
				Subject: "author", Issuer: "someone-else", ExpiresAt: future,
			}},
			method: jwt.SigningMethodHS256,
		},
		{
			name: "missing expiry",
			claims: &Claims{Role: RoleAuthor, RegisteredClaims: jwt.RegisteredClaims{
				Subject: "author", Issuer: config.DefaultJWTIssuer,
			}},
			method: jwt.SigningMethodHS256,
		},
		{
			name: "wrong role",
			claims: &Claims{Role: "viewer", RegisteredClaims: jwt.RegisteredClaims{
				Subject: "author", Issuer: config.DefaultJWTIssuer, ExpiresAt: future,
			}},
			method: jwt.SigningMethodHS256,
		},
		{
			name: "different HMAC algorithm",
			claims: &Claims{Role: RoleAuthor, RegisteredClaims: jwt.RegisteredClaims{
				Subject: "author", Issuer: config.DefaultJWTIssuer, ExpiresAt: future,
			}},
			method: jwt.SigningMethodHS512,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(signClaims(t, tt.claims, tt.method))
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTService_AsTokenValidator(t *testing.T) {
	service := setupTestJWTService(t, 1)
	token, _, err := service.GenerateToken("author")
	require.NoError(t, err)

	getter, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	subject, err := getter.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "author", subject)

	_, err = service.AsTokenValidator().ValidateToken("garbage")
	assert.Error(t, err)
}
