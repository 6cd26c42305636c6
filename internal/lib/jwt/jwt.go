package jwt

import (
	"errors"
	"fmt"
	"time"

	"polaroida/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrWrongKind     = errors.New("wrong token kind")
	ErrInvalidClaims = errors.New("invalid token claims")
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

type Claims struct {
	UserID uuid.UUID
	Email  string
	Kind   Kind
	Expiry time.Time
}

func NewToken(user models.User, secret string, kind Kind, duration time.Duration) (string, error) {
	now := time.Now()

	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["uid"] = user.ID.String()
	claims["email"] = user.Email
	claims["kind"] = string(kind)
	claims["jti"] = uuid.NewString()
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(duration).Unix()

	return token.SignedString([]byte(secret))
}

// Parse проверяет подпись, срок действия и тип токена
func Parse(tokenString, secret string, kind Kind) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if k, _ := claims["kind"].(string); Kind(k) != kind {
		return nil, ErrWrongKind
	}

	uid, _ := claims["uid"].(string)
	userID, err := uuid.Parse(uid)
	if err != nil {
		return nil, ErrInvalidClaims
	}

	email, _ := claims["email"].(string)

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidClaims
	}

	return &Claims{
		UserID: userID,
		Email:  email,
		Kind:   kind,
		Expiry: exp.Time,
	}, nil
}
