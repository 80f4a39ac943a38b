package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"

	"photostore/auth"
	"photostore/captcha"
	"photostore/config"
	"photostore/database"
	handler "photostore/handlers"
	"photostore/router"
)

func main() {
	cfg := config.Load()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	store, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing the database: %v", err)
		}
	}()

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.BodyLimit,
	})

	h := handler.New(
		store,
		auth.NewService(cfg.SessionSecret),
		captcha.NewService(cfg.CaptchaSecret, cfg.CaptchaTTL, captcha.NewImageRenderer()),
		cfg,
	)
	router.SetupRoutes(app, h)

	fmt.Println("Server is listening at the port " + cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
