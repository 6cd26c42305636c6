package middleware

import (
	"net/http"
	"strings"

	"polaroida/internal/lib/jwt"
	"polaroida/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	SessionName  = "session"
	principalKey = "principal"
)

// Principal аутентифицированный пользователь текущего запроса
type Principal struct {
	UserID uuid.UUID
	Email  string
}

type AccessTokenParser interface {
	ParseAccess(accessToken string) (*jwt.Claims, error)
}

// RequireAuth определяет пользователя по Bearer-токену, иначе по cookie сессии.
// Без пользователя запрос завершается 401.
func RequireAuth(parser AccessTokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := resolvePrincipal(c, parser)
			if !ok {
				return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
			}

			c.Set(principalKey, principal)

			return next(c)
		}
	}
}

// PrincipalFrom возвращает пользователя, установленный RequireAuth
func PrincipalFrom(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok && p.UserID != uuid.Nil
}

// SetPrincipal используется в тестах обработчиков
func SetPrincipal(c echo.Context, p Principal) {
	c.Set(principalKey, p)
}

func resolvePrincipal(c echo.Context, parser AccessTokenParser) (Principal, bool) {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return Principal{}, false
		}

		claims, err := parser.ParseAccess(token)
		if err != nil {
			return Principal{}, false
		}

		return Principal{UserID: claims.UserID, Email: claims.Email}, true
	}

	sess, err := session.Get(SessionName, c)
	if err != nil {
		return Principal{}, false
	}

	raw, _ := sess.Values["user_id"].(string)
	userID, err := uuid.Parse(raw)
	if err != nil || userID == uuid.Nil {
		return Principal{}, false
	}

	email, _ := sess.Values["email"].(string)

	return Principal{UserID: userID, Email: email}, true
}
