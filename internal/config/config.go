package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"

	LLMAnthropic = "anthropic"
	LLMGemini    = "gemini"

	MailPostmark = "postmark"
	MailSMTP     = "smtp"
)

type Config struct {
	Environment string
	Port        string
	Timezone    string

	StoreDriver         string
	DBHost              string
	DBPort              string
	DBUsername          string
	DBPassword          string
	DBName              string
	DBSSLMode           string
	SQLitePath          string
	EncryptionKeyBase64 string

	// JWTSecret enables bearer auth on the review API when set.
	JWTSecret       string
	WebhookUsername string
	WebhookPassword string

	LLMProvider     string
	AnthropicAPIKey string
	AnthropicModel  string
	AnthropicURL    string
	GeminiAPIKey    string
	GeminiModel     string

	MailProvider        string
	FromEmail           string
	PostmarkServerToken string
	PostmarkURL         string
	SMTPAddr            string
	SMTPUsername        string
	SMTPPassword        string

	IMAPServer   string
	IMAPUsername string
	IMAPPassword string
	IMAPFolder   string
	IMAPUseTLS   bool
	// IMAPPollInterval bounds how long the poller idles before checking again.
	IMAPPollInterval time.Duration

	ShopifyShopName    string
	ShopifyAccessToken string
	ShopifyAPIVersion  string
	ShopifyBaseURL     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DedupTTL      time.Duration

	AMQPURL string

	KnowledgeBasePath       string
	WebSocketMaxPerReviewer int
	OutboundRequestTimeout  time.Duration
}

func NewConfig() (*Config, error) {
	env := os.Getenv("SUPPORTDESK_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" {
		if err := godotenv.Load(); err != nil {
			fmt.Println("Warning: .env file not found, using environment variables")
		}
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	wsMax, err := getEnvInt("SUPPORTDESK_WS_MAX_PER_REVIEWER", 10)
	if err != nil {
		return nil, err
	}
	dedupTTL, err := getEnvDuration("DEDUP_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	outboundTimeout, err := getEnvDuration("OUTBOUND_REQUEST_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	imapPoll, err := getEnvDuration("IMAP_POLL_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Environment: env,
		Port:        getEnvOrDefault("PORT", "3000"),
		Timezone:    getEnvOrDefault("TZ", "UTC"),

		StoreDriver:         strings.ToLower(getEnvOrDefault("SUPPORTDESK_STORE", StoreMemory)),
		DBHost:              getEnvOrDefault("SUPPORTDESK_DB_HOST", "localhost"),
		DBPort:              getEnvOrDefault("SUPPORTDESK_DB_PORT", "5432"),
		DBUsername:          getEnvOrDefault("SUPPORTDESK_DB_USER", "supportdesk"),
		DBPassword:          os.Getenv("SUPPORTDESK_DB_PASSWORD"),
		DBName:              getEnvOrDefault("SUPPORTDESK_DB_NAME", "supportdesk"),
		DBSSLMode:           getEnvOrDefault("SUPPORTDESK_DB_SSLMODE", "disable"),
		SQLitePath:          getEnvOrDefault("SUPPORTDESK_SQLITE_PATH", "data/supportdesk.db"),
		EncryptionKeyBase64: os.Getenv("SUPPORTDESK_ENCRYPTION_KEY_BASE64"),

		JWTSecret:       os.Getenv("SUPPORTDESK_JWT_SECRET"),
		WebhookUsername: os.Getenv("WEBHOOK_USERNAME"),
		WebhookPassword: os.Getenv("WEBHOOK_PASSWORD"),

		LLMProvider:     strings.ToLower(getEnvOrDefault("LLM_PROVIDER", LLMAnthropic)),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  getEnvOrDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		AnthropicURL:    getEnvOrDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com/v1"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),

		MailProvider:        strings.ToLower(getEnvOrDefault("MAIL_PROVIDER", MailPostmark)),
		FromEmail:           getEnvOrDefault("FROM_EMAIL", "info@mythicappareltees.com"),
		PostmarkServerToken: os.Getenv("POSTMARK_SERVER_TOKEN"),
		PostmarkURL:         getEnvOrDefault("POSTMARK_BASE_URL", "https://api.postmarkapp.com"),
		SMTPAddr:            os.Getenv("SMTP_ADDR"),
		SMTPUsername:        os.Getenv("SMTP_USERNAME"),
		SMTPPassword:        os.Getenv("SMTP_PASSWORD"),

		IMAPServer:   os.Getenv("IMAP_SERVER"),
		IMAPUsername: os.Getenv("IMAP_USERNAME"),
		IMAPPassword: os.Getenv("IMAP_PASSWORD"),
		IMAPFolder:   getEnvOrDefault("IMAP_FOLDER", "INBOX"),
		IMAPUseTLS:   getEnvOrDefault("IMAP_USE_TLS", "true") != "false",

		IMAPPollInterval: imapPoll,

		ShopifyShopName:    os.Getenv("SHOPIFY_SHOP_NAME"),
		ShopifyAccessToken: os.Getenv("SHOPIFY_ACCESS_TOKEN"),
		ShopifyAPIVersion:  getEnvOrDefault("SHOPIFY_API_VERSION", "2024-01"),
		ShopifyBaseURL:     os.Getenv("SHOPIFY_BASE_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		DedupTTL:      dedupTTL,

		AMQPURL: os.Getenv("AMQP_URL"),

		KnowledgeBasePath:       os.Getenv("KNOWLEDGE_BASE_PATH"),
		WebSocketMaxPerReviewer: wsMax,
		OutboundRequestTimeout:  outboundTimeout,
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("SUPPORTDESK_DB_PASSWORD is required for the postgres store")
		}
		if c.EncryptionKeyBase64 == "" {
			return fmt.Errorf("SUPPORTDESK_ENCRYPTION_KEY_BASE64 is required for the postgres store")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SUPPORTDESK_SQLITE_PATH is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown SUPPORTDESK_STORE %q", c.StoreDriver)
	}

	switch c.LLMProvider {
	case LLMAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
	case LLMGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	switch c.MailProvider {
	case MailPostmark:
		if c.PostmarkServerToken == "" {
			return fmt.Errorf("POSTMARK_SERVER_TOKEN is required")
		}
	case MailSMTP:
		if c.SMTPAddr == "" {
			return fmt.Errorf("SMTP_ADDR is required")
		}
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q", c.MailProvider)
	}

	if c.IMAPServer != "" && (c.IMAPUsername == "" || c.IMAPPassword == "") {
		return fmt.Errorf("IMAP_USERNAME and IMAP_PASSWORD are required when IMAP_SERVER is set")
	}

	if (c.ShopifyShopName == "") != (c.ShopifyAccessToken == "") {
		return fmt.Errorf("SHOPIFY_SHOP_NAME and SHOPIFY_ACCESS_TOKEN must be set together")
	}

	if (c.WebhookUsername == "") != (c.WebhookPassword == "") {
		return fmt.Errorf("WEBHOOK_USERNAME and WEBHOOK_PASSWORD must be set together")
	}

	return nil
}

func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUsername,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// ShopifyEnabled reports whether order and customer lookups are configured.
func (c *Config) ShopifyEnabled() bool {
	return c.ShopifyShopName != "" && c.ShopifyAccessToken != ""
}

// IMAPEnabled reports whether the support mailbox poller should run.
func (c *Config) IMAPEnabled() bool {
	return c.IMAPServer != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return parsed, nil
}
