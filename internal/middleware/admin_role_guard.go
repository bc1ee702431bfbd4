package middleware

import (
	"github.com/labstack/echo/v4"
)

// AuthJWT の後ろに置く。roleがADMINのときだけ通す。
func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxUserRoleKey).(string)
			if !ok || role == "" {
				return unauthorized(c)
			}

			//USERは拒否
			if role != RoleAdmin {
				return forbidden(c)
			}

			return next(c)
		}
	}
}
