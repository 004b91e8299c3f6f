package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr           string
	JWTSecret          string // base64-encoded symmetric key
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	ReaperInterval     time.Duration
	CORSAllowedOrigins []string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt64(key string, def int64) int64 {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("invalid int for %s, using default: %v", key, err)
		return def
	}
	return i
}

func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		JWTSecret:       getenv("JWT_SECRET", "ZGV2LWluc2VjdXJlLXNpZ25pbmctc2VjcmV0LWNoYW5nZS1tZQ=="),
		AccessTokenTTL:  time.Duration(getInt64("ACCESS_TOKEN_TTL_SECONDS", 900)) * time.Second,
		RefreshTokenTTL: time.Duration(getInt64("REFRESH_TOKEN_TTL_SECONDS", 14*24*3600)) * time.Second,
		ReaperInterval:  time.Duration(getInt64("REAPER_INTERVAL_SECONDS", 3600)) * time.Second,
		CORSAllowedOrigins: strings.Split(
			getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ","),
	}
}
