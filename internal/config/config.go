// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// defaultAPIBaseURL is the public GitHub REST API endpoint. The GraphQL
// endpoint is derived from it by the adapter.
const defaultAPIBaseURL = "https://api.github.com/"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken string
	APIBaseURL  string
}

// Load reads configuration from environment variables, after loading a .env
// file from the working directory when one exists. PRDIGEST_GITHUB_TOKEN is
// required (GITHUB_TOKEN is accepted as a fallback, matching what CI runners
// already export). PRDIGEST_API_URL overrides the API endpoint for GitHub
// Enterprise installs.
func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("PRDIGEST_GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, errors.New("PRDIGEST_GITHUB_TOKEN (or GITHUB_TOKEN) must be set")
	}

	apiBaseURL := defaultAPIBaseURL
	if v, ok := os.LookupEnv("PRDIGEST_API_URL"); ok && v != "" {
		apiBaseURL = v
	}

	return &Config{
		GitHubToken: token,
		APIBaseURL:  apiBaseURL,
	}, nil
}
