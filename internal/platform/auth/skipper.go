package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// publicPaths lists route patterns that bypass authentication regardless of
// HTTP method: infrastructure endpoints and the auth endpoints themselves.
var publicPaths = map[string]bool{
	"/health":               true,
	"/health/db":            true,
	"/api/v1/auth/register": true,
	"/api/v1/auth/login":    true,
}

// publicReadPaths lists route patterns that are public for GET requests only.
// Doctor and department listings back the unauthenticated browse pages.
var publicReadPaths = map[string]bool{
	"/api/v1/doctors":         true,
	"/api/v1/doctors/:id":     true,
	"/api/v1/departments":     true,
	"/api/v1/departments/:id": true,
}

// Skipper reports whether a request should bypass the auth middleware.
// Uploaded images are served statically and are always public.
func Skipper(c echo.Context) bool {
	path := c.Path()
	if publicPaths[path] {
		return true
	}
	if c.Request().Method == http.MethodGet {
		if publicReadPaths[path] {
			return true
		}
		if strings.HasPrefix(c.Request().URL.Path, "/pic-uploads/") {
			return true
		}
	}
	return false
}
