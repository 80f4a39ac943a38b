package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"photostore/auth"
	"photostore/database"
	"photostore/middleware"
	"photostore/models"
)

type credentialsInput struct {
	Username        string `json:"username" form:"username"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm-password"`
	CaptchaAnswer   string `json:"captcha_answer" form:"captcha_answer"`
	CaptchaToken    string `json:"captcha_token" form:"captcha_token"`
}

// Signup registers a new account and logs it in.
func (h *Handler) Signup(c *fiber.Ctx) error {
	input := new(credentialsInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
			"data":    nil,
		})
	}

	if !isValidUsername(input.Username) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Username can only contain: alphabets, digits and underscores",
			"data":    nil,
		})
	}

	if len(input.Password) < 8 || len(input.Password) > 32 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Password can have 8-32 characters only!",
			"data":    nil,
		})
	}

	if input.Password != input.ConfirmPassword {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Passwords are not same!",
			"data":    nil,
		})
	}

	if msg := h.checkCaptcha(input.CaptchaAnswer, input.CaptchaToken); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": msg,
			"data":    nil,
		})
	}

	passwdHash, err := auth.HashPassword(input.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Failed to hash password",
			"data":    nil,
		})
	}

	account := models.Account{
		Username:   input.Username,
		PasswdHash: passwdHash,
		Timestamp:  time.Now().Unix(),
	}

	if err := h.Store.CreateAccount(account); err != nil {
		if errors.Is(err, database.ErrExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"status":  "error",
				"message": "Username already registered!",
				"data":    nil,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Failed to create account",
			"data":    nil,
		})
	}

	if err := h.setSessionCookie(c, account.Username); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Failed to generate token",
			"data":    nil,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Account created successfully",
		"data":    fiber.Map{"username": account.Username},
	})
}

// Login verifies credentials and issues the session cookie.
func (h *Handler) Login(c *fiber.Ctx) error {
	input := new(credentialsInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
			"data":    nil,
		})
	}

	if input.Username == "" || input.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Username and password cannot be empty!",
			"data":    nil,
		})
	}

	if msg := h.checkCaptcha(input.CaptchaAnswer, input.CaptchaToken); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": msg,
			"data":    nil,
		})
	}

	// The two error messages below let user enumeration through; kept
	// because the frontend shows them differently.
	account, err := h.Store.GetAccount(input.Username)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "This user does not exist!",
			"data":    nil,
		})
	}

	if !auth.CheckPassword(input.Password, account.PasswdHash) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid credentials!",
			"data":    nil,
		})
	}

	if err := h.setSessionCookie(c, account.Username); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Failed to generate token",
			"data":    nil,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Login successful",
		"data":    fiber.Map{"username": account.Username},
	})
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	clearSessionCookie(c)
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Logout successful",
		"data":    nil,
	})
}

type resetPasswordInput struct {
	CurrentPassword    string `json:"current_password" form:"current-password"`
	NewPassword        string `json:"new_password" form:"new-password"`
	ConfirmNewPassword string `json:"confirm_new_password" form:"confirm-new-password"`
	CaptchaAnswer      string `json:"captcha_answer" form:"captcha_answer"`
	CaptchaToken       string `json:"captcha_token" form:"captcha_token"`
}

// ResetPassword changes the logged-in account's password after
// re-verifying the current one.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	username := middleware.Username(c)

	input := new(resetPasswordInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
			"data":    nil,
		})
	}

	if len(input.NewPassword) < 8 || len(input.NewPassword) > 32 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Password can have 8-32 characters only!",
			"data":    nil,
		})
	}

	if input.NewPassword != input.ConfirmNewPassword {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Passwords are not same!",
			"data":    nil,
		})
	}

	if msg := h.checkCaptcha(input.CaptchaAnswer, input.CaptchaToken); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": msg,
			"data":    nil,
		})
	}

	account, err := h.Store.GetAccount(username)
	if err != nil || !auth.CheckPassword(input.CurrentPassword, account.PasswdHash) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid credentials!",
			"data":    nil,
		})
	}

	passwdHash, err := auth.HashPassword(input.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Failed to hash password",
			"data":    nil,
		})
	}

	if err := h.Store.SetAccountPassword(username, passwdHash); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Failed to update password",
			"data":    nil,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Password updated successfully",
		"data":    nil,
	})
}
