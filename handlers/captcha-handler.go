package handler

import (
	"encoding/base64"

	"github.com/gofiber/fiber/v2"
)

// GetCaptcha hands out a fresh challenge: the rendered image and the
// signed proof token. The answer never leaves the service.
func (h *Handler) GetCaptcha(c *fiber.Ctx) error {
	if !h.Cfg.UseCaptcha {
		return c.SendStatus(fiber.StatusNotFound)
	}

	challenge, err := h.Captcha.Generate()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Failed to generate captcha",
			"data":    nil,
		})
	}

	c.Set("Cache-Control", "no-cache, no-store, max-age=0")
	return c.JSON(fiber.Map{
		"b64":   base64.StdEncoding.EncodeToString(challenge.Image),
		"token": challenge.Token,
	})
}
