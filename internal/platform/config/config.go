package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration for both the client and the
// development stub server.
type Config struct {
	// Client settings.
	APIBaseURL   string
	StateDBPath  string
	HTTPTimeout  time.Duration
	IsProduction bool

	// Stub server settings.
	Port              string
	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string
}

// LoadConfig loads configuration from environment variables and a .env file
// if present. Environment variables win over .env values.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("API_BASE_URL", "http://127.0.0.1:5000")
	viper.SetDefault("STATE_DB_PATH", defaultStateDBPath())
	viper.SetDefault("HTTP_TIMEOUT", "15s")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("PORT", "5000")
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "expenseport-stub")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.APIBaseURL = viper.GetString("API_BASE_URL")
	cfg.StateDBPath = viper.GetString("STATE_DB_PATH")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.Port = viper.GetString("PORT")
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	timeoutStr := viper.GetString("HTTP_TIMEOUT")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 15 * time.Second
		if timeoutStr != "" {
			log.Printf("Warning: Invalid value for HTTP_TIMEOUT ('%s'). Defaulting to %s.\n", timeoutStr, timeout)
		}
	}
	cfg.HTTPTimeout = timeout

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = time.Hour
		if jwtExpiryStr != "" {
			log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration)
		}
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration

	return cfg, nil
}

func defaultStateDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "expenseport.db"
	}
	return filepath.Join(dir, "expenseport", "state.db")
}
