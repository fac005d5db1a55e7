package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the environment driven configuration for the client simulator.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"client-sim" yaml:"service_name" json:"service_name"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development" yaml:"environment" json:"environment"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info" yaml:"log_level" json:"log_level"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console" yaml:"log_format" json:"log_format" jsonschema:"enum=console,enum=json"`
	HTTPEnabled     bool          `env:"HTTP_ENABLED" envDefault:"true" yaml:"http_enabled" json:"http_enabled"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8095" yaml:"http_port" json:"http_port"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false" yaml:"enable_tracing" json:"enable_tracing"`
	EnableMetrics   bool          `env:"ENABLE_METRICS" envDefault:"false" yaml:"enable_metrics" json:"enable_metrics"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"" yaml:"otlp_endpoint" json:"otlp_endpoint"`
	PIILevel        string        `env:"PII_LEVEL" envDefault:"standard" yaml:"pii_level" json:"pii_level" jsonschema:"enum=redacted,enum=standard,enum=full"`

	Mail         MailConfig         `yaml:"mail" json:"mail"`
	Conversation ConversationConfig `yaml:"conversation" json:"conversation"`
	LLM          LLMConfig          `yaml:"llm" json:"llm"`
}

// MailConfig covers the mailbox the client persona sends from and reads.
type MailConfig struct {
	Address            string        `env:"EMAIL_ADDRESS" yaml:"address" json:"address"`
	Password           string        `env:"EMAIL_PASSWORD" yaml:"password" json:"password"`
	CounterpartAddress string        `env:"WANDERO_EMAIL" yaml:"counterpart_address" json:"counterpart_address"`
	IMAPHost           string        `env:"IMAP_HOST" envDefault:"imap.gmail.com" yaml:"imap_host" json:"imap_host"`
	IMAPPort           int           `env:"IMAP_PORT" envDefault:"993" yaml:"imap_port" json:"imap_port"`
	Mailbox            string        `env:"IMAP_MAILBOX" envDefault:"INBOX" yaml:"mailbox" json:"mailbox"`
	SMTPHost           string        `env:"SMTP_HOST" envDefault:"smtp.gmail.com" yaml:"smtp_host" json:"smtp_host"`
	SMTPPort           int           `env:"SMTP_PORT" envDefault:"587" yaml:"smtp_port" json:"smtp_port"`
	Subject            string        `env:"EMAIL_SUBJECT" envDefault:"Trip Planning Request" yaml:"subject" json:"subject"`
	MessageIDDomain    string        `env:"MESSAGE_ID_DOMAIN" envDefault:"wandero-simulator" yaml:"message_id_domain" json:"message_id_domain"`
	DialTimeout        time.Duration `env:"MAIL_DIAL_TIMEOUT" envDefault:"30s" yaml:"dial_timeout" json:"dial_timeout"`
	SeenCacheSize      int           `env:"MAIL_SEEN_CACHE_SIZE" envDefault:"256" yaml:"seen_cache_size" json:"seen_cache_size"`
}

// ConversationConfig holds the pacing of one simulated conversation.
type ConversationConfig struct {
	CompanyName         string        `env:"COMPANY_NAME" yaml:"company_name" json:"company_name"`
	Country             string        `env:"COMPANY_COUNTRY" yaml:"country" json:"country"`
	CounterpartName     string        `env:"COUNTERPART_NAME" envDefault:"Wandero" yaml:"counterpart_name" json:"counterpart_name"`
	PollInterval        time.Duration `env:"POLL_INTERVAL" envDefault:"120s" yaml:"poll_interval" json:"poll_interval"`
	MaxRounds           int           `env:"MAX_ROUNDS" envDefault:"50" yaml:"max_rounds" json:"max_rounds"`
	RetryDelay          time.Duration `env:"RETRY_DELAY" envDefault:"120s" yaml:"retry_delay" json:"retry_delay"`
	MaxSendRetries      int           `env:"MAX_SEND_RETRIES" envDefault:"5" yaml:"max_send_retries" json:"max_send_retries"`
	MaxPollFailures     int           `env:"MAX_POLL_FAILURES" envDefault:"10" yaml:"max_poll_failures" json:"max_poll_failures"`
	MaxIdlePolls        int           `env:"MAX_IDLE_POLLS" envDefault:"0" yaml:"max_idle_polls" json:"max_idle_polls"`
	FollowUpProbability float64       `env:"FOLLOW_UP_PROBABILITY" envDefault:"0.15" yaml:"follow_up_probability" json:"follow_up_probability"`
	FollowUpMinRounds   int           `env:"FOLLOW_UP_MIN_ROUNDS" envDefault:"2" yaml:"follow_up_min_rounds" json:"follow_up_min_rounds"`
	FollowUpDelayMin    time.Duration `env:"FOLLOW_UP_DELAY_MIN" envDefault:"60s" yaml:"follow_up_delay_min" json:"follow_up_delay_min"`
	FollowUpDelayMax    time.Duration `env:"FOLLOW_UP_DELAY_MAX" envDefault:"180s" yaml:"follow_up_delay_max" json:"follow_up_delay_max"`
}

// LLMConfig points at an OpenAI compatible chat completions endpoint.
type LLMConfig struct {
	APIKey          string        `env:"OPENAI_API_KEY" yaml:"api_key" json:"api_key"`
	BaseURL         string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1" yaml:"base_url" json:"base_url"`
	Model           string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini" yaml:"model" json:"model"`
	Temperature     float32       `env:"LLM_TEMPERATURE" envDefault:"0.8" yaml:"temperature" json:"temperature"`
	Timeout         time.Duration `env:"LLM_TIMEOUT" envDefault:"60s" yaml:"timeout" json:"timeout"`
	BreakerFailures uint32        `env:"LLM_BREAKER_FAILURES" envDefault:"5" yaml:"breaker_failures" json:"breaker_failures"`
	BreakerTimeout  time.Duration `env:"LLM_BREAKER_TIMEOUT" envDefault:"60s" yaml:"breaker_timeout" json:"breaker_timeout"`
}

// Parse reads environment variables into Config without validating them.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	return cfg, nil
}

// Load parses environment variables into Config and validates the result.
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFiles applies every existing .env file in order with godotenv.Overload, so a
// later file overrides an earlier one (../.env wins over ./.env). Missing files are
// skipped; unreadable ones are reported and skipped.
func LoadEnvFiles(paths ...string) []error {
	if len(paths) == 0 {
		paths = []string{".env", "../.env"}
	}
	var errs []error
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", path, err))
		}
	}
	return errs
}

// Validate checks that a conversation can actually be run with this configuration.
func (c *Config) Validate() error {
	var problems []string
	required := map[string]string{
		"EMAIL_ADDRESS":   c.Mail.Address,
		"EMAIL_PASSWORD":  c.Mail.Password,
		"WANDERO_EMAIL":   c.Mail.CounterpartAddress,
		"COMPANY_COUNTRY": c.Conversation.Country,
	}
	for _, name := range []string{"EMAIL_ADDRESS", "EMAIL_PASSWORD", "WANDERO_EMAIL", "COMPANY_COUNTRY"} {
		if strings.TrimSpace(required[name]) == "" {
			problems = append(problems, name+" is required")
		}
	}

	conv := c.Conversation
	if conv.PollInterval <= 0 {
		problems = append(problems, "POLL_INTERVAL must be positive")
	}
	if conv.MaxRounds <= 0 {
		problems = append(problems, "MAX_ROUNDS must be positive")
	}
	if conv.RetryDelay < 0 {
		problems = append(problems, "RETRY_DELAY must not be negative")
	}
	if conv.MaxSendRetries < 0 || conv.MaxPollFailures < 0 || conv.MaxIdlePolls < 0 {
		problems = append(problems, "retry and idle limits must not be negative")
	}
	if conv.FollowUpProbability < 0 || conv.FollowUpProbability > 1 {
		problems = append(problems, "FOLLOW_UP_PROBABILITY must be between 0 and 1")
	}
	if conv.FollowUpDelayMin < 0 || conv.FollowUpDelayMax < conv.FollowUpDelayMin {
		problems = append(problems, "FOLLOW_UP_DELAY_MIN must be >= 0 and <= FOLLOW_UP_DELAY_MAX")
	}
	if c.HTTPEnabled && (c.HTTPPort <= 0 || c.HTTPPort > 65535) {
		problems = append(problems, "HTTP_PORT must be a valid port")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
