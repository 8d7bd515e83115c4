package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORS lets browser dashboards on other origins read the API. The surface is
// read only, so preflights are answered for GET and nothing else. No
// arguments, or "*", allows every origin.
func CORS(origins ...string) echo.MiddlewareFunc {
	allowAll := len(origins) == 0
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
			continue
		}
		allowed[strings.ToLower(o)] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			if origin == "" {
				return next(c)
			}

			h := c.Response().Header()
			h.Add(echo.HeaderVary, echo.HeaderOrigin)
			if allowAll {
				h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			} else {
				if _, ok := allowed[strings.ToLower(origin)]; !ok {
					return next(c)
				}
				h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			}

			if c.Request().Method == http.MethodOptions {
				h.Set(echo.HeaderAccessControlAllowMethods, http.MethodGet)
				h.Set(echo.HeaderAccessControlAllowHeaders, echo.HeaderContentType)
				h.Set(echo.HeaderAccessControlMaxAge, "600")
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}
