package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	handler "photostore/handlers"
	"photostore/middleware"
)

func SetupRoutes(app *fiber.App, h *handler.Handler) {
	api := app.Group("/api", logger.New(), middleware.Resolve(h.Tokens))

	api.Get("/captcha", h.GetCaptcha)

	auth := api.Group("/auth")
	auth.Post("/signup", h.Signup)
	auth.Post("/login", h.Login)
	auth.Get("/logout", h.Logout)
	auth.Post("/reset-password", middleware.RequireLogin(), h.ResetPassword)

	image := api.Group("/image")
	image.Get("/list", h.ImageList)
	image.Get("/get/:id", h.ImageGet)
	image.Get("/info/:id", h.ImageInfo)
	image.Post("/upload", middleware.RequireLogin(), h.ImageUpload)
	image.Post("/delete", middleware.RequireLogin(), h.ImageDelete)
	image.Post("/like", middleware.RequireLogin(), h.ImageLike)
	image.Post("/comment", middleware.RequireLogin(), h.ImageComment)
	image.Post("/make_public", middleware.RequireLogin(), h.ImageMakePublic)

	user := api.Group("/user")
	user.Get("/info/:username", h.UserInfo)
	user.Get("/profile", middleware.RequireLogin(), h.Profile)

	api.Post("/avatar", middleware.RequireLogin(), h.AvatarUpload)
	api.Get("/avatar/:username", h.AvatarGet)
}
