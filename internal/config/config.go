package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultContactEmail = "hello@codewithrodrick.com"
	DefaultUploadLimit  = 10 << 20 // 10MB
	DefaultSessionTTL   = 7 * 24 * time.Hour
)

type Config struct {
	Environment    string // ENV: production, development, etc.
	Port           string
	Host           string   // Raw HOST env (e.g. https://api.codewithrodrick.com)
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL
	LogFormat      string
	LogLevel       string
	MetricsEnabled bool
	TrustProxy     bool // honor X-Forwarded-For / X-Real-IP

	PostgresURI string
	RedisURI    string
	MongoURI    string // optional, enables the contact archive

	SessionCookieName string
	SessionTTL        time.Duration

	UploadBackend  string // cloudinary, s3 or empty
	UploadMaxBytes int64
	UploadsDir     string // legacy local images

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	S3 S3Config

	MailConnectorHostname string
	MailConnectorToken    string
	MailFromFallback      string
	ContactFallbackEmail  string
}

// S3Config describes an S3-compatible bucket (AWS, MinIO, Supabase Storage).
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	UsePathStyle    bool
}

// SetDefaults registers default values on v. Call before Load.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "5000")
	v.SetDefault("HOST", "http://localhost:5000")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("TRUST_PROXY", false)
	v.SetDefault("POSTGRES_URI", "postgres://localhost:5432/portfolio?sslmode=disable")
	v.SetDefault("REDIS_URI", "redis://localhost:6379/0")
	v.SetDefault("SESSION_COOKIE_NAME", "portfolio.sid")
	v.SetDefault("SESSION_TTL", DefaultSessionTTL)
	v.SetDefault("UPLOAD_MAX_BYTES", DefaultUploadLimit)
	v.SetDefault("UPLOADS_DIR", "./uploads")
	v.SetDefault("CLOUDINARY_FOLDER", "portfolio")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("MAIL_FROM_FALLBACK", "noreply@example.com")
	v.SetDefault("CONTACT_FALLBACK_EMAIL", DefaultContactEmail)
}

// Load builds a Config from v. Environment variables win over defaults.
func Load(v *viper.Viper) *Config {
	host := v.GetString("HOST")

	allowedOrigins := parseOrigins(v.GetString("ALLOWED_ORIGINS"))
	if len(allowedOrigins) == 0 {
		if u := strings.TrimSpace(v.GetString("FRONTEND_URL")); u != "" {
			allowedOrigins = append(allowedOrigins, u)
		}
	}
	// The API is commonly served from the same origin as the SPA.
	if origin := originOf(host); origin != "" && !containsOrigin(allowedOrigins, origin) {
		allowedOrigins = append(allowedOrigins, origin)
	}

	backend := strings.ToLower(strings.TrimSpace(v.GetString("UPLOAD_BACKEND")))
	if backend == "" && v.GetString("CLOUDINARY_CLOUD_NAME") != "" {
		backend = "cloudinary"
	}

	return &Config{
		Environment:    strings.ToLower(strings.TrimSpace(v.GetString("ENV"))),
		Port:           v.GetString("PORT"),
		Host:           host,
		AllowedOrigins: allowedOrigins,
		LogFormat:      v.GetString("LOG_FORMAT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		TrustProxy:     v.GetBool("TRUST_PROXY"),

		PostgresURI: v.GetString("POSTGRES_URI"),
		RedisURI:    v.GetString("REDIS_URI"),
		MongoURI:    v.GetString("MONGODB_URI"),

		SessionCookieName: v.GetString("SESSION_COOKIE_NAME"),
		SessionTTL:        v.GetDuration("SESSION_TTL"),

		UploadBackend:  backend,
		UploadMaxBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
		UploadsDir:     v.GetString("UPLOADS_DIR"),

		CloudinaryName:      v.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    v.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: v.GetString("CLOUDINARY_API_SECRET"),
		CloudinaryFolder:    v.GetString("CLOUDINARY_FOLDER"),

		S3: S3Config{
			Bucket:          v.GetString("S3_BUCKET"),
			Region:          v.GetString("S3_REGION"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			PublicBaseURL:   strings.TrimRight(v.GetString("S3_PUBLIC_BASE_URL"), "/"),
			UsePathStyle:    v.GetBool("S3_USE_PATH_STYLE"),
		},

		MailConnectorHostname: connectorHostname(v),
		MailConnectorToken:    connectorToken(v),
		MailFromFallback:      v.GetString("MAIL_FROM_FALLBACK"),
		ContactFallbackEmail:  v.GetString("CONTACT_FALLBACK_EMAIL"),
	}
}

func connectorHostname(v *viper.Viper) string {
	if h := strings.TrimSpace(v.GetString("MAIL_CONNECTOR_HOSTNAME")); h != "" {
		return h
	}
	return strings.TrimSpace(v.GetString("REPLIT_CONNECTORS_HOSTNAME"))
}

// connectorToken falls back to the platform identity tokens, which the
// connector API expects prefixed with their kind.
func connectorToken(v *viper.Viper) string {
	if t := strings.TrimSpace(v.GetString("MAIL_CONNECTOR_TOKEN")); t != "" {
		return t
	}
	if t := strings.TrimSpace(v.GetString("REPL_IDENTITY")); t != "" {
		return "repl " + t
	}
	if t := strings.TrimSpace(v.GetString("WEB_REPL_RENEWAL")); t != "" {
		return "depl " + t
	}
	return ""
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

// originOf strips any path from a URL, leaving scheme://host[:port].
func originOf(raw string) string {
	raw = strings.TrimSpace(raw)
	var scheme string
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(raw, prefix) {
			scheme = prefix
			raw = strings.TrimPrefix(raw, prefix)
			break
		}
	}
	if scheme == "" {
		return ""
	}
	if idx := strings.Index(raw, "/"); idx != -1 {
		raw = raw[:idx]
	}
	if raw == "" {
		return ""
	}
	return scheme + raw
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
