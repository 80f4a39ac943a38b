package handler

import (
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"photostore/auth"
	"photostore/captcha"
	"photostore/config"
	"photostore/database"
)

var usernameRe = regexp.MustCompile(`^[0-9A-Za-z_]{4,32}$`)

var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
}

// Handler carries the service dependencies into the route handlers.
// Everything stateful is injected here; there are no package globals.
type Handler struct {
	Store   *database.Store
	Tokens  *auth.Service
	Captcha *captcha.Service
	Cfg     config.App
}

func New(store *database.Store, tokens *auth.Service, captchaSvc *captcha.Service, cfg config.App) *Handler {
	return &Handler{Store: store, Tokens: tokens, Captcha: captchaSvc, Cfg: cfg}
}

func isValidUsername(username string) bool {
	return usernameRe.MatchString(username)
}

func extension(filename string) string {
	if !strings.Contains(filename, ".") {
		return ""
	}
	parts := strings.Split(filename, ".")
	return strings.ToLower(parts[len(parts)-1])
}

func isAllowedFile(filename string) bool {
	return allowedExtensions[extension(filename)]
}

// setSessionCookie issues a session token for username and plants it
// in the "jwt" cookie.
func (h *Handler) setSessionCookie(c *fiber.Ctx, username string) error {
	tokenStr, err := h.Tokens.Issue(map[string]any{"username": username})
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    tokenStr,
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return nil
}

func clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// checkCaptcha gates a form submission on the captcha outcome when
// captcha is enabled. Returns a user-facing message for the failure,
// or "" when the submission may proceed.
func (h *Handler) checkCaptcha(answer, token string) string {
	if !h.Cfg.UseCaptcha {
		return ""
	}

	result := h.Captcha.Verify(answer, token)
	if result.Expired {
		return "CAPTCHA has expired!"
	}
	if !result.Valid {
		return "CAPTCHA error!"
	}
	return ""
}
