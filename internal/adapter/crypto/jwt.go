package crypto

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gitlab.com/nqueens.net/internal/config"
	"gitlab.com/nqueens.net/internal/core/ports/primary"
)

var _ primary.TokenService = (*JWTServiceImpl)(nil)

const tokenIssuer = "nqueens-coordinator"

var (
	ErrInvalidToken = fmt.Errorf("invalid token")
)

// JWTServiceImpl signs executor registration tokens with a shared HMAC secret
type JWTServiceImpl struct {
	HMACSecretKey string
	TokenTTL      time.Duration
}

func NewJWTService(jwtConfig *config.JwtConfig) *JWTServiceImpl {
	return &JWTServiceImpl{
		HMACSecretKey: jwtConfig.Secret,
		TokenTTL:      jwtConfig.TokenTTL,
	}
}

// GenerateToken issues a token that lets executorID join a cluster
func (J JWTServiceImpl) GenerateToken(ctx context.Context, executorID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   executorID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(J.TokenTTL)),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(J.HMACSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks the signature, expiry, issuer and that the token was
// issued for executorID
func (J JWTServiceImpl) VerifyToken(ctx context.Context, token string, executorID string) (bool, error) {
	parsedToken, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(J.HMACSecretKey), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithSubject(executorID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return parsedToken.Valid, nil
}
