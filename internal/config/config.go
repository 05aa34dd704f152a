package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port           string
	LogLevel       string
	DefaultCountry string
	SessionTTL     time.Duration
	SweepInterval  time.Duration
	DatabasePath   string
	ExportEnabled  bool
	ExportFile     string
	WebhookURL     string
	WebhookToken   string
	WebhookTimeout time.Duration
	AdminUser      string
	AdminPass      string
}

// Load reads an optional .env file and then the environment. Variables already
// set in the environment win over the file.
func Load(files ...string) Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", f).Msg("could not read env file")
		}
	}
	return FromEnv()
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.LogLevel = getenv("LOG_LEVEL", "info")
	c.DefaultCountry = strings.ToUpper(getenv("DEFAULT_COUNTRY", "NP"))
	c.SessionTTL = getduration("SESSION_TTL", 30*time.Minute)
	c.SweepInterval = getduration("SWEEP_INTERVAL", time.Minute)
	c.DatabasePath = getenv("DATABASE_PATH", "./data/intake.db")
	c.ExportEnabled = getbool("EXPORT_ENABLED", true)
	c.ExportFile = getenv("EXPORT_FILE", "./cdr-intake-submissions.txt")
	c.WebhookURL = os.Getenv("WEBHOOK_URL")
	c.WebhookToken = os.Getenv("WEBHOOK_TOKEN")
	c.WebhookTimeout = getduration("WEBHOOK_TIMEOUT", 10*time.Second)
	c.AdminUser = os.Getenv("ADMIN_USER")
	c.AdminPass = os.Getenv("ADMIN_PASS")
	return c
}

func (c Config) AdminEnabled() bool { return c.AdminUser != "" && c.AdminPass != "" }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	log.Warn().Str("key", k).Str("value", v).Bool("default", def).Msg("invalid boolean, using default")
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Warn().Str("key", k).Str("value", v).Dur("default", def).Msg("invalid duration, using default")
		return def
	}
	return d
}
