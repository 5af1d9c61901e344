// Package config provides environment-based configuration.
//
// Loads from .env file (godotenv), maps to Config struct via go-simpler/env struct tags.
// Every variable carries the VETER_ prefix; only VETER_TOKEN is required.
package config
