package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default allowed origins for development
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

type Config struct {
	Port        string
	SecretKey   string
	DatabaseURL string
	UploadDir   string

	OAuth  OAuthConfig
	Cookie CookieConfig

	AllowedOrigins []string

	RedisAddr     string
	DealsURL      string
	DealsCacheTTL time.Duration
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Issuer       string
}

// Enabled reports whether Google sign-in has client credentials.
func (o OAuthConfig) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != ""
}

type CookieConfig struct {
	Domain string
	Secure bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("database_url", "sqlite://instance/app.db")
	v.SetDefault("upload_dir", "static/uploads")
	v.SetDefault("oauth_redirect_url", "http://localhost:3000/oauth/callback")
	v.SetDefault("oauth_issuer", "https://accounts.google.com")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("deals_url", "https://www.cheapshark.com/api/1.0/deals")
	v.SetDefault("deals_cache_ttl", 5*time.Minute)
}

// Load reads .env (if present), an optional YAML file and the environment.
// Environment variables win over the file. An empty path looks for
// taskdeck.yaml in the working directory.
func Load(path string) (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("taskdeck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Port:        v.GetString("port"),
		SecretKey:   v.GetString("secret_key"),
		DatabaseURL: v.GetString("database_url"),
		UploadDir:   v.GetString("upload_dir"),
		OAuth: OAuthConfig{
			ClientID:     v.GetString("oauth_client_id"),
			ClientSecret: v.GetString("oauth_client_secret"),
			RedirectURL:  v.GetString("oauth_redirect_url"),
			Issuer:       v.GetString("oauth_issuer"),
		},
		Cookie: CookieConfig{
			Domain: v.GetString("cookie_domain"),
			Secure: v.GetBool("cookie_secure"),
		},
		AllowedOrigins: allowedOrigins(v.GetString("client_url"), v.GetString("allowed_origins")),
		RedisAddr:      v.GetString("redis_addr"),
		DealsURL:       v.GetString("deals_url"),
		DealsCacheTTL:  v.GetDuration("deals_cache_ttl"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY environment variable is not set")
	}

	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable is not set")
	}

	return nil
}

func allowedOrigins(clientURL, extra string) []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL != "" {
		origins = append(origins, clientURL)
	}

	for _, origin := range strings.Split(extra, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return origins
}
