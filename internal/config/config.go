package config

import (
	"fmt"
	"os"
	"time"

	pkgcfg "github.com/Skotchmaster/sweet_shop/pkg/config"
)

type AdminSeed struct {
	Name     string
	Email    string
	Password string
}

func (a AdminSeed) Enabled() bool {
	return a.Email != "" && a.Password != ""
}

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	JWTSecret     []byte
	JWTExpiration time.Duration

	CORSOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	Admin AdminSeed
}

func Load() Config {
	return Config{
		ServiceName: pkgcfg.EnvDefault("SERVICE_NAME", "sweetshop"),
		ServerPort:  pkgcfg.EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    pkgcfg.EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: databaseURL(),

		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		JWTExpiration: pkgcfg.EnvDurationDefault("JWT_EXPIRATION", 24*time.Hour),

		CORSOrigins: pkgcfg.CSV(pkgcfg.EnvDefault("CORS_ORIGINS", "*")),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       pkgcfg.EnvIntDefault("REDIS_DB", 0),

		KafkaBrokers: pkgcfg.CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    pkgcfg.EnvDefault("ES_INDEX", "sweets"),

		Admin: AdminSeed{
			Name:     pkgcfg.EnvDefault("ADMIN_NAME", "Admin"),
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}
}

// Validate stops the process when a required value is missing.
func (c Config) Validate() {
	pkgcfg.MustNonEmpty(c.DatabaseURL, "DATABASE_URL")
	pkgcfg.MustNonEmptyBytes(c.JWTSecret, "JWT_SECRET")
}

// databaseURL prefers DATABASE_URL and otherwise assembles one from the DB_* parts.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		host,
		pkgcfg.EnvDefault("DB_PORT", "5432"),
		os.Getenv("DB_NAME"),
		pkgcfg.EnvDefault("DB_SSLMODE", "disable"),
	)
}
