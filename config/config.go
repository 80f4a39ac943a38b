package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadEnv sync.Once

// Config returns the value of a required environment variable,
// loading .env on first use. Missing values abort startup.
func Config(envVar string) string {
	loadEnv.Do(func() {
		// .env is optional; deployments may set the environment directly
		_ = godotenv.Load()
	})

	envVarValue := os.Getenv(envVar)
	if envVarValue == "" {
		fmt.Fprintf(os.Stderr, "%s not set\n", envVar)
		os.Exit(1)
	}

	return envVarValue
}

func configOr(envVar, fallback string) string {
	loadEnv.Do(func() {
		_ = godotenv.Load()
	})

	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return fallback
}

func configIntOr(envVar string, fallback int) int {
	v, err := strconv.Atoi(configOr(envVar, strconv.Itoa(fallback)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s is not a number\n", envVar)
		os.Exit(1)
	}
	return v
}

// App holds everything the service reads from the environment.
type App struct {
	SessionSecret []byte
	CaptchaSecret []byte
	UseCaptcha    bool
	CaptchaTTL    time.Duration
	BcryptCost    int
	DatabasePath  string
	UploadDir     string
	BodyLimit     int
	Port          string
}

// Load reads the full configuration. SECRET_KEY and CAPTCHA_KEY are
// required and must be independent secrets: the session cookie and the
// captcha proof token must never verify against each other's key.
func Load() App {
	return App{
		SessionSecret: []byte(Config("SECRET_KEY")),
		CaptchaSecret: []byte(Config("CAPTCHA_KEY")),
		UseCaptcha:    configOr("USE_CAPTCHA", "true") != "false",
		CaptchaTTL:    time.Duration(configIntOr("CAPTCHA_EXPIRE_SECONDS", 300)) * time.Second,
		BcryptCost:    configIntOr("BCRYPT_COST", 12),
		DatabasePath:  configOr("DATABASE", "photostore.db"),
		UploadDir:     configOr("UPLOAD_DIR", "uploads"),
		BodyLimit:     configIntOr("MAX_CONTENT_LENGTH", 1*1000*1000),
		Port:          configOr("PORT", "8080"),
	}
}
