package folio

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Password string `json:"password" form:"password" validate:"required"`
}

type sessionState struct {
	Authenticated bool `json:"authenticated"`
}

// checkPassword compares against the bcrypt hash when one is configured and
// falls back to a constant-time comparison with the plain password.
func (a *App) checkPassword(pass string) bool {
	if a.Config.AdminPasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(a.Config.AdminPasswordHash), []byte(pass)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1
}

func (a *App) apiLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.JSON(http.StatusTooManyRequests, envelope{Error: "too many requests"})
	}
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return a.fail(c, err, "session")
	}
	if !a.checkPassword(req.Password) {
		a.loginLimiter.Record(ip)
		return c.JSON(http.StatusUnauthorized, envelope{Error: "invalid password"})
	}
	if err := setAdminSession(c); err != nil {
		return a.fail(c, err, "session")
	}
	return ok(c, http.StatusOK, sessionState{Authenticated: true})
}

func (a *App) apiLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return a.fail(c, err, "session")
	}
	return ok(c, http.StatusOK, sessionState{Authenticated: false})
}

func (a *App) apiSession(c echo.Context) error {
	return ok(c, http.StatusOK, sessionState{Authenticated: IsAdmin(c)})
}
