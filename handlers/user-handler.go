package handler

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/gift"
	"github.com/gofiber/fiber/v2"

	"photostore/middleware"
)

const avatarSize = 256

// UserInfo returns public profile stats for any account.
func (h *Handler) UserInfo(c *fiber.Ctx) error {
	username := c.Params("username")
	if !isValidUsername(username) {
		return c.SendStatus(fiber.StatusNotFound)
	}

	account, err := h.Store.GetAccount(username)
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	stats, err := h.Store.AccountStats(username)
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	c.Set("Cache-Control", "no-cache, no-store, max-age=0")
	return c.JSON(fiber.Map{
		"timestamp": account.Timestamp,
		"username":  account.Username,
		"likes":     stats.TotalLikes,
		"views":     stats.TotalViews,
		"uploads":   stats.Uploads,
	})
}

// Profile returns the logged-in account's own stats.
func (h *Handler) Profile(c *fiber.Ctx) error {
	username := middleware.Username(c)

	account, err := h.Store.GetAccount(username)
	if err != nil {
		// valid token for an account that no longer exists
		clearSessionCookie(c)
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	stats, _ := h.Store.AccountStats(username)

	c.Set("Cache-Control", "no-cache, no-store, max-age=0")
	return c.JSON(fiber.Map{
		"username":    account.Username,
		"avatar":      account.Avatar,
		"uploads":     stats.Uploads,
		"total_likes": stats.TotalLikes,
		"total_views": stats.TotalViews,
	})
}

// AvatarUpload replaces the logged-in user's avatar. The uploaded
// image is decoded, shrunk to a 256px thumbnail and re-encoded as PNG,
// so whatever arrives is stored in one known-good format.
func (h *Handler) AvatarUpload(c *fiber.Ctx) error {
	username := middleware.Username(c)

	file, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "No file selected!",
			"data":    nil,
		})
	}

	if !isAllowedFile(file.Filename) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": fmt.Sprintf("Invalid file extension: `%s`", extension(file.Filename)),
			"data":    nil,
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error opening the file",
			"data":    nil,
		})
	}
	defer src.Close()

	decoded, _, err := image.Decode(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Unsupported image!",
			"data":    nil,
		})
	}

	g := gift.New(gift.ResizeToFit(avatarSize, avatarSize, gift.LanczosResampling))
	thumb := image.NewNRGBA(g.Bounds(decoded.Bounds()))
	g.Draw(thumb, decoded)

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error encoding the avatar",
			"data":    nil,
		})
	}

	filename := fmt.Sprintf("avatar-%s.png", username)
	if err := os.WriteFile(filepath.Join(h.Cfg.UploadDir, filename), buf.Bytes(), 0o644); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error saving the avatar",
			"data":    nil,
		})
	}

	if err := h.Store.SetAccountAvatar(username, filename); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error saving to database",
			"data":    nil,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Avatar updated successfully!",
		"data":    fiber.Map{"avatar": filename},
	})
}

// AvatarGet serves an account's avatar, or 404 so the client can fall
// back to the default icon.
func (h *Handler) AvatarGet(c *fiber.Ctx) error {
	username := c.Params("username")
	if !isValidUsername(username) {
		return c.SendStatus(fiber.StatusNotFound)
	}

	account, err := h.Store.GetAccount(username)
	if err != nil || account.Avatar == "" {
		return c.SendStatus(fiber.StatusNotFound)
	}

	path := filepath.Join(h.Cfg.UploadDir, account.Avatar)
	if _, err := os.Stat(path); err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	return c.SendFile(path)
}
