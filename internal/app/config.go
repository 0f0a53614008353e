package app

import (
	"os"

	"github.com/funwriting/ai-agents/internal/logger"
	"github.com/funwriting/ai-agents/internal/utils"
)

type Config struct {
	AppEnv            string
	Port              string
	BucketName        string
	EnableImageSafety bool
	DatabaseEnabled   bool
}

func LoadConfig(log *logger.Logger) Config {
	appEnv := utils.GetEnv("APP_ENV", "development", log)
	port := utils.GetEnv("PORT", "8080", log)
	bucketName := utils.GetEnv("GCS_BUCKET_NAME", "fun-writing-media-prod", log)
	enableImageSafety := utils.GetEnvAsBool("ENABLE_IMAGE_SAFETY", false, log)
	_, databaseEnabled := os.LookupEnv("POSTGRES_HOST")
	return Config{
		AppEnv:            appEnv,
		Port:              port,
		BucketName:        bucketName,
		EnableImageSafety: enableImageSafety,
		DatabaseEnabled:   databaseEnabled,
	}
}

func (c Config) Production() bool {
	return c.AppEnv == "production"
}
