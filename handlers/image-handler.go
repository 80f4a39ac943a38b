package handler

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"photostore/database"
	"photostore/middleware"
	"photostore/models"
)

func parseImageID(raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ImageList returns image ids for the requested page type.
func (h *Handler) ImageList(c *fiber.Ctx) error {
	username := middleware.Username(c)
	pagetype := c.Query("pagetype", "index")

	c.Set("Cache-Control", "no-cache, no-store, max-age=0")
	return c.JSON(h.Store.Feed(username, pagetype))
}

// ImageGet serves the image file itself. Private images are only
// served to their owner - the check runs against the verified session
// identity, never against anything the client claims. A logged-in
// view is recorded before the file leaves.
func (h *Handler) ImageGet(c *fiber.Ctx) error {
	id, ok := parseImageID(c.Params("id"))
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}

	img, err := h.Store.GetImage(id)
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	username := middleware.Username(c)
	if img.Owner != username && !img.Public {
		return c.SendStatus(fiber.StatusForbidden)
	}

	if username != "" {
		if _, err := h.Store.RecordView(id, username); err != nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
	}

	path := filepath.Join(h.Cfg.UploadDir, img.Filename)
	if _, err := os.Stat(path); err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	// image files never change once stored
	c.Set("Cache-Control", "max-age=31536000, immutable")
	return c.SendFile(path)
}

// ImageInfo returns an image's metadata.
func (h *Handler) ImageInfo(c *fiber.Ctx) error {
	id, ok := parseImageID(c.Params("id"))
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}

	img, err := h.Store.GetImage(id)
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	username := middleware.Username(c)
	if img.Owner != username && !img.Public {
		return c.SendStatus(fiber.StatusForbidden)
	}

	firstSeen := false
	if username != "" {
		firstSeen = true
		for _, viewer := range img.Views {
			if viewer == username {
				firstSeen = false
				break
			}
		}
	}

	c.Set("Cache-Control", "no-cache, no-store, max-age=0")
	return c.JSON(fiber.Map{
		"timestamp":   img.Timestamp,
		"owner":       img.Owner,
		"description": img.Description,
		"public":      img.Public,
		"likes":       img.Likes,
		"views":       len(img.Views),
		"comments":    img.Comments,
		"firstSeen":   firstSeen,
	})
}

// ImageUpload stores a new image for the logged-in user. The file is
// written to disk first; the record insert and the uploads counter
// bump then happen in one store transaction.
func (h *Handler) ImageUpload(c *fiber.Ctx) error {
	username := middleware.Username(c)
	description := html.EscapeString(c.FormValue("description"))

	file, err := c.FormFile("fileToUpload")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "No file selected!",
			"data":    nil,
		})
	}

	ext := extension(file.Filename)
	if !isAllowedFile(file.Filename) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": fmt.Sprintf("Invalid file extension: `%s`", ext),
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

	raw, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error reading the file",
			"data":    nil,
		})
	}

	// content sniff: the extension alone proves nothing
	if _, _, err := image.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Unsupported image!",
			"data":    nil,
		})
	}

	filename := fmt.Sprintf("%s-%s.%s", username, uuid.NewString(), ext)
	if err := os.WriteFile(filepath.Join(h.Cfg.UploadDir, filename), raw, 0o644); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error saving the file",
			"data":    nil,
		})
	}

	id, err := h.Store.InsertImage(models.Image{
		Filename:    filename,
		Owner:       username,
		Timestamp:   time.Now().Unix(),
		Public:      false,
		Description: description,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error saving to database",
			"data":    nil,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "File uploaded successfully!",
		"data":    fiber.Map{"id": id},
	})
}

type imageActionInput struct {
	ID         int    `json:"id"`
	Like       bool   `json:"like"`
	MakePublic bool   `json:"make_public"`
	Comment    string `json:"comment"`
}

// ImageDelete removes an owned image: the file outside the store
// lock, then the record, counter decrement and aggregate recompute in
// one transaction. Returns the owner's recomputed totals.
func (h *Handler) ImageDelete(c *fiber.Ctx) error {
	username := middleware.Username(c)

	input := new(imageActionInput)
	if err := c.BodyParser(input); err != nil || input.ID <= 0 {
		return c.SendStatus(fiber.StatusNotFound)
	}

	img, err := h.Store.GetImage(input.ID)
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	if img.Owner != username {
		return c.SendStatus(fiber.StatusForbidden)
	}

	if err := os.Remove(filepath.Join(h.Cfg.UploadDir, img.Filename)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error removing the file",
			"data":    nil,
		})
	}

	stats, err := h.Store.DeleteImage(input.ID)
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	return c.JSON(fiber.Map{
		"total_likes": stats.TotalLikes,
		"total_views": stats.TotalViews,
	})
}

// ImageLike toggles the requester's like on an image. Toggling twice
// with the same value is a no-op.
func (h *Handler) ImageLike(c *fiber.Ctx) error {
	username := middleware.Username(c)

	input := new(imageActionInput)
	if err := c.BodyParser(input); err != nil || input.ID <= 0 {
		return c.SendStatus(fiber.StatusNotFound)
	}

	likes, totalLikes, err := h.Store.ToggleLike(input.ID, username, input.Like)
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	return c.JSON(fiber.Map{
		"likes":       likes,
		"total_likes": totalLikes,
	})
}

// ImageComment appends a comment to an image.
func (h *Handler) ImageComment(c *fiber.Ctx) error {
	username := middleware.Username(c)

	input := new(imageActionInput)
	if err := c.BodyParser(input); err != nil || input.ID <= 0 || input.Comment == "" {
		return c.SendStatus(fiber.StatusNotFound)
	}

	comment := models.Comment{
		Username: username,
		// stored escaped so templates can render it verbatim
		Comment:   html.EscapeString(input.Comment),
		Timestamp: time.Now().Unix(),
	}

	comments, err := h.Store.AddComment(input.ID, comment)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"comments": comments})
}

// ImageMakePublic flips an owned image's visibility.
func (h *Handler) ImageMakePublic(c *fiber.Ctx) error {
	username := middleware.Username(c)

	input := new(imageActionInput)
	if err := c.BodyParser(input); err != nil || input.ID <= 0 {
		return c.SendStatus(fiber.StatusNotFound)
	}

	img, err := h.Store.GetImage(input.ID)
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	if img.Owner != username {
		return c.SendStatus(fiber.StatusForbidden)
	}

	if err := h.Store.SetImagePublic(input.ID, input.MakePublic); err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Visibility updated",
		"data":    fiber.Map{"public": input.MakePublic},
	})
}
