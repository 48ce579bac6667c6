package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
)

const AccessTokenType = "access"

var signingMethod = jwt.SigningMethodHS256

// JWTManager verifies access tokens issued by the school's auth service.
type JWTManager struct {
	secretKey string
	issuer    string
}

func NewJWTManager(secretKey, issuer string) *JWTManager {
	return &JWTManager{
		secretKey: secretKey,
		issuer:    issuer,
	}
}

type AccessTokenClaims struct {
	TokenType string    `json:"token_type"`
	UserID    uuid.UUID `json:"user_id"`
	Roles     []string  `json:"roles"`
	jwt.RegisteredClaims
}

func (j *JWTManager) AccessClaims(tokenStr string) (*AccessTokenClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{signingMethod.Alg()})}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(j.secretKey), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, app_errors.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", app_errors.ErrUnauthorized, err)
	}

	if claims.TokenType != AccessTokenType {
		return nil, fmt.Errorf("%w: wrong token type %q", app_errors.ErrUnauthorized, claims.TokenType)
	}
	return claims, nil
}

// GenerateAccessToken signs an access token. Tokens are normally issued by
// the auth service; this is used for local runs and tests.
func (j *JWTManager) GenerateAccessToken(userID uuid.UUID, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(signingMethod, AccessTokenClaims{
		TokenType: AccessTokenType,
		UserID:    userID,
		Roles:     roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    j.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("access token signing failed: %w", err)
	}
	return signed, nil
}
