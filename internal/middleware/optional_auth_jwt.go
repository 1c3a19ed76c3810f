package middleware

import (
	"errors"

	"app/internal/config"
	"app/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// ゲストも通すルート用。Bearerが付いていて正しければcontextに入れ、
// 無ければそのまま通す。壊れたtokenだけ弾きたいのでここでは無視する。
func OptionalAuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return next(c)
			}

			token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || token == nil || !token.Valid {
				return next(c)
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return next(c)
			}

			userID, err := asInt64(claims["sub"])
			if err != nil || userID <= 0 {
				return next(c)
			}
			role, ok := claims["role"].(string)
			if !ok {
				return next(c)
			}
			tv, err := asInt(claims["tv"])
			if err != nil {
				return next(c)
			}

			c.Set(CtxUserIDKey, userID)
			c.Set(CtxUserRoleKey, role)
			c.Set(CtxTokenVersionKey, tv)
			c.Set(CtxPermissionsKey, model.PermissionsForRole(model.Role(role)))

			return next(c)
		}
	}
}
