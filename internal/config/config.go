package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Profile documents come from S3 when configured, otherwise from
	// ProfileDir on local disk.
	ProfileDir  string `envconfig:"PROFILE_DIR" default:"data/communities"`
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"pulseqa-profiles"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	GenerationModel string `envconfig:"GENERATION_MODEL"`

	PulseBaseURL string `envconfig:"PULSE_BASE_URL" default:"https://calgarypulse.ca/communities"`

	// Retrieval and assembly policy knobs.
	TopK              int     `envconfig:"TOP_K" default:"8"`
	MinScore          float32 `envconfig:"MIN_SCORE" default:"0.25"`
	SectionBoost      float32 `envconfig:"SECTION_BOOST" default:"0.15"`
	ContextBudget     int     `envconfig:"CONTEXT_BUDGET" default:"12000"`
	ChunkMaxChars     int     `envconfig:"CHUNK_MAX_CHARS" default:"1800"`
	GenerationRetries int     `envconfig:"GENERATION_RETRIES" default:"3"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("PULSEQA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
