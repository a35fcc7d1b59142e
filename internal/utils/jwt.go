package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/packwise/go-pack-sync/models"
)

var (
	ErrTokenIsExpired = errors.New("token is expired")
	ErrInvalidToken   = errors.New("invalid token")
)

// GenerateJWTToken creates a signed HMAC-SHA256 JWT with the standard
// claims: iss (issuer), sub (user id as string), iat and exp
// (now + tokenDuration). All parameters are required.
func GenerateJWTToken(issuer string, userID int64, tokenDuration time.Duration, signKey string) (models.Token, error) {
	if issuer == "" || tokenDuration == 0 || signKey == "" {
		return models.Token{}, errors.New("invalid params for generating JWT token")
	}

	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(signKey))
	if err != nil {
		return models.Token{}, fmt.Errorf("error occurred during signing JWT token: %w", err)
	}

	return models.Token{Token: token, SignedString: tokenString, UserID: userID}, nil
}

// ValidateAndParseJWTToken verifies the signature, issuer and expiration of
// tokenString and extracts the user id from the subject claim.
func ValidateAndParseJWTToken(tokenString, tokenSignKey, tokenIssuer string) (models.Token, error) {
	token, err := jwt.Parse(tokenString,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, t.Header["alg"])
			}
			return []byte(tokenSignKey), nil
		},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Token{}, ErrTokenIsExpired
		}
		return models.Token{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Token{}, fmt.Errorf("%w: unexpected claims type", ErrInvalidToken)
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	return models.Token{Token: token, SignedString: tokenString, UserID: userID}, nil
}
