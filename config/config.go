package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/nmoreira/prode-server/models"
)

// Config holds every runtime parameter of the application.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// Optional ranking cache. Empty address disables caching.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Optional: a registered user to promote to admin at startup.
	AdminEmail string

	// Optional avatar storage (Cloudflare R2). Empty account id disables
	// avatar uploads.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	Scoring models.ScoringPolicy
}

// Load reads configuration from environment variables, optionally
// sourcing a .env file first (useful for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	scoring, err := loadScoringPolicy()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		JWTSecretKey:      jwtKey,
		ServerPort:        port,
		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           redisDB,
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		Scoring:           scoring,
	}

	return cfg, nil
}

// loadScoringPolicy reads the tunable point values, falling back to the
// defaults for any unset variable.
func loadScoringPolicy() (models.ScoringPolicy, error) {
	policy := models.DefaultScoringPolicy()

	var err error
	if policy.ExactScore, err = intEnv("SCORE_EXACT", policy.ExactScore); err != nil {
		return policy, err
	}
	if policy.CorrectOutcome, err = intEnv("SCORE_OUTCOME", policy.CorrectOutcome); err != nil {
		return policy, err
	}
	if policy.ChampionBonus, err = intEnv("SCORE_CHAMPION_BONUS", policy.ChampionBonus); err != nil {
		return policy, err
	}
	if policy.RunnerUpBonus, err = intEnv("SCORE_RUNNERUP_BONUS", policy.RunnerUpBonus); err != nil {
		return policy, err
	}
	return policy, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return value, nil
}
