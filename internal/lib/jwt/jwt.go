package jwt

import (
	"errors"
	"fmt"
	"time"

	"imagetales/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidTokenClaims = errors.New("invalid token claims")
	ErrWrongTokenType     = errors.New("wrong token type")
)

const (
	ClaimUserID = "uid"
	ClaimEmail  = "email"
	ClaimType   = "typ"
	ClaimID     = "jti"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// NewToken подписывает токен типа typ. У каждого токена свой jti.
func NewToken(user models.User, secret, typ string, duration time.Duration) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	now := time.Now()

	claims := token.Claims.(jwt.MapClaims)
	claims[ClaimUserID] = user.ID.String()
	claims[ClaimEmail] = user.Email
	claims[ClaimType] = typ
	claims[ClaimID] = uuid.NewString()
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(duration).Unix()

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken проверяет подпись и срок действия токена
func ParseToken(tokenString, secret string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if _, ok := token.Claims.(jwt.MapClaims); !ok || !token.Valid {
		return nil, ErrInvalidTokenClaims
	}

	return token, nil
}

// Parse проверяет токен и возвращает его claims
func Parse(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := ParseToken(tokenString, secret)
	if err != nil {
		return nil, err
	}

	return token.Claims.(jwt.MapClaims), nil
}

// ParseAccessToken принимает только access-токены: refresh не годится для доступа к API
func ParseAccessToken(tokenString, secret string) (*jwt.Token, error) {
	token, err := ParseToken(tokenString, secret)
	if err != nil {
		return nil, err
	}

	if Type(token.Claims.(jwt.MapClaims)) != TypeAccess {
		return nil, ErrWrongTokenType
	}

	return token, nil
}

func Type(claims jwt.MapClaims) string {
	typ, _ := claims[ClaimType].(string)
	return typ
}

// UserID достает идентификатор пользователя из claims
func UserID(claims jwt.MapClaims) (string, error) {
	uid, ok := claims[ClaimUserID].(string)
	if !ok || uid == "" {
		return "", ErrInvalidTokenClaims
	}
	return uid, nil
}
