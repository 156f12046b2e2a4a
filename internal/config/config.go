package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Twilio TwilioConfig
	OpenAI OpenAIConfig
	AWS    AWSConfig
	Calls  CallsConfig
	OTP    OTPConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	// Driver selects the store implementation: "postgres" or "sqlite".
	Driver string

	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for AWS-ready posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string

	// SQLitePath is the database file when Driver == "sqlite".
	SQLitePath string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration

	// AdminUsername/AdminPassword back the login endpoint. Login is
	// disabled when either is empty.
	AdminUsername string
	AdminPassword string
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string

	// CallbackBaseURL is the externally reachable base URL Twilio uses
	// for voice and status webhooks (e.g. https://api.example.com).
	CallbackBaseURL string
}

type OpenAIConfig struct {
	APIKey      string
	Model       string
	Temperature float64
}

type AWSConfig struct {
	Region      string
	EmailSender string
	SMSSenderID string
}

type CallsConfig struct {
	// MaxDuration forces the conversation toward closing once exceeded.
	MaxDuration time.Duration
	// MaxExchanges caps assistant/caller exchange rounds per call.
	MaxExchanges int
	// MaxActive caps concurrently active outbound calls for this deployment.
	MaxActive int
	// TranscriptDir is where per-call transcript JSON documents are written.
	// Empty disables transcript persistence.
	TranscriptDir string
}

type OTPConfig struct {
	TTL time.Duration

	// RateLimitMax requests per RateLimitWindow per destination.
	RateLimitMax    int
	RateLimitWindow time.Duration
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Driver = strings.TrimSpace(os.Getenv("DB_DRIVER"))
	if c.DB.Driver == "" {
		c.DB.Driver = "postgres"
	}
	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port = optInt("DB_PORT", 5432)
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	c.DB.SQLitePath = strings.TrimSpace(os.Getenv("DB_SQLITE_PATH"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port = optInt("REDIS_PORT", 6379)

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTokenTTL = optDuration("JWT_ACCESS_TTL", 15*time.Minute)
	c.Auth.AdminUsername = strings.TrimSpace(os.Getenv("ADMIN_USERNAME"))
	c.Auth.AdminPassword = os.Getenv("ADMIN_PASSWORD")

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.FromNumber = strings.TrimSpace(os.Getenv("TWILIO_FROM_NUMBER"))
	c.Twilio.CallbackBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("TWILIO_CALLBACK_BASE_URL")), "/")

	c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAI.Model = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	c.OpenAI.Temperature = optFloat("OPENAI_TEMPERATURE", 0.7)

	c.AWS.Region = strings.TrimSpace(os.Getenv("AWS_REGION"))
	c.AWS.EmailSender = strings.TrimSpace(os.Getenv("EMAIL_SENDER"))
	c.AWS.SMSSenderID = strings.TrimSpace(os.Getenv("SMS_SENDER_ID"))

	c.Calls.MaxDuration = optDuration("CALL_MAX_DURATION", 5*time.Minute)
	c.Calls.MaxExchanges = optInt("CALL_MAX_EXCHANGES", 20)
	c.Calls.MaxActive = optInt("CALL_MAX_ACTIVE", 10)
	c.Calls.TranscriptDir = strings.TrimSpace(os.Getenv("CALL_TRANSCRIPT_DIR"))

	c.OTP.TTL = optDuration("OTP_TTL", 10*time.Minute)
	c.OTP.RateLimitMax = optInt("OTP_RATE_LIMIT_MAX", 3)
	c.OTP.RateLimitWindow = optDuration("OTP_RATE_LIMIT_WINDOW", 10*time.Minute)

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	switch c.DB.Driver {
	case "postgres":
		if c.DB.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required"))
		}
		if c.DB.Port <= 0 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required"))
		}
		if strings.TrimSpace(c.DB.SSLMode) == "" {
			if c.IsProduction() {
				errs = append(errs, errors.New("DB_SSLMODE is required in production"))
			}
		} else if !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	case "sqlite":
		if c.DB.SQLitePath == "" {
			errs = append(errs, errors.New("DB_SQLITE_PATH is required when DB_DRIVER=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TTL must be positive"))
	}

	if c.Twilio.AccountSID == "" {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID is required"))
	}
	if c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required"))
	}
	if c.Twilio.FromNumber == "" {
		errs = append(errs, errors.New("TWILIO_FROM_NUMBER is required"))
	}
	if c.Twilio.CallbackBaseURL == "" {
		errs = append(errs, errors.New("TWILIO_CALLBACK_BASE_URL is required"))
	} else if !strings.HasPrefix(c.Twilio.CallbackBaseURL, "http://") && !strings.HasPrefix(c.Twilio.CallbackBaseURL, "https://") {
		errs = append(errs, fmt.Errorf("TWILIO_CALLBACK_BASE_URL must be an http(s) URL, got %q", c.Twilio.CallbackBaseURL))
	}

	// OPENAI_API_KEY is optional: without it the conversation engine runs on
	// static stage scripts only.
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		errs = append(errs, fmt.Errorf("OPENAI_TEMPERATURE must be in [0,2], got %v", c.OpenAI.Temperature))
	}

	if c.Calls.MaxDuration <= 0 {
		errs = append(errs, errors.New("CALL_MAX_DURATION must be positive"))
	}
	if c.Calls.MaxExchanges <= 0 {
		errs = append(errs, errors.New("CALL_MAX_EXCHANGES must be positive"))
	}
	if c.Calls.MaxActive <= 0 {
		errs = append(errs, errors.New("CALL_MAX_ACTIVE must be positive"))
	}

	if c.OTP.TTL <= 0 {
		errs = append(errs, errors.New("OTP_TTL must be positive"))
	}
	if c.OTP.RateLimitMax <= 0 {
		errs = append(errs, errors.New("OTP_RATE_LIMIT_MAX must be positive"))
	}
	if c.OTP.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("OTP_RATE_LIMIT_WINDOW must be positive"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	sslmode := c.DB.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		sslmode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// VoiceWebhookURL is the absolute URL Twilio calls with gathered speech.
func (c Config) VoiceWebhookURL() string {
	return c.Twilio.CallbackBaseURL + "/call/webhook"
}

// StatusWebhookURL is the absolute URL Twilio posts call status updates to.
func (c Config) StatusWebhookURL() string {
	return c.Twilio.CallbackBaseURL + "/call/status"
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func optFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func optDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
