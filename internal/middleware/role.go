package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole rejects authenticated requests whose role claim is not one of
// roles.  Anonymous requests are left to the handlers, which treat them as
// the unauthenticated actor.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if UserID(c) == 0 {
                return next(c)
            }
            role, _ := c.Get(roleKey).(string)
            if !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
