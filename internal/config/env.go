package config

import (
	"os"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Getenv returns the value of the requested environment variable or the supplied fallback when empty.
func Getenv(name string, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return fallback
}
