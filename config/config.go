package config

import (
	"os"
	"time"
)

// Config holds everything the service reads from the environment.
type Config struct {
	Port         string
	DatabaseURL  string
	ClientOrigin string
	JWTSecret    string
	JWTExpiry    time.Duration

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
	// S3PublicURL is the prefix under which uploaded objects are publicly
	// reachable, e.g. https://s3-us-west-1.amazonaws.com/cribtrakr
	S3PublicURL string
}

func Load() Config {
	return Config{
		Port:         getenv("PORT", "8080"),
		DatabaseURL:  getenv("DATABASE_URL", "./cribtrakr.db"),
		ClientOrigin: getenv("CLIENT_ORIGIN", "http://localhost:3000"),
		JWTSecret:    getenv("JWT_SECRET", "budapest"),
		JWTExpiry:    getDuration("JWT_EXPIRY", 7*24*time.Hour),
		S3Endpoint:   getenv("S3_ENDPOINT", "s3.amazonaws.com"),
		S3AccessKey:  os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:  os.Getenv("S3_SECRET_KEY"),
		S3Bucket:     getenv("S3_BUCKET", "cribtrakr"),
		S3UseSSL:     getenv("S3_USE_SSL", "true") == "true",
		S3PublicURL:  getenv("S3_PUBLIC_URL", "https://s3-us-west-1.amazonaws.com/cribtrakr"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
