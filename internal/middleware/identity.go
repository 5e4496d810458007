package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

const (
    userIDKey = "user_id"
    roleKey   = "role"
)

// UserID returns the authenticated user id set by JWTAuth, or 0 for an
// anonymous request.
func UserID(c echo.Context) uint64 {
    if v, ok := c.Get(userIDKey).(uint64); ok {
        return v
    }
    return 0
}

// rateKeyUser is the user component of rate-limit keys.
func rateKeyUser(c echo.Context) string {
    if id := UserID(c); id != 0 {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}

// claimUint accepts the JSON number or numeric string forms of a claim.
func claimUint(v interface{}) (uint64, bool) {
    switch t := v.(type) {
    case float64:
        if t < 0 || t != float64(uint64(t)) {
            return 0, false
        }
        return uint64(t), true
    case string:
        n, err := strconv.ParseUint(t, 10, 64)
        return n, err == nil
    }
    return 0, false
}
