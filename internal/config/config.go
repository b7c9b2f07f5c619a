package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	_ "time/tzdata"
)

// callbackPhases is how many sequential callback.timeout deadlines one
// callback can spend before it answers: the note write, the fallback stub
// write and the ledger record.
const callbackPhases = 3

const (
	BackendGitHub = "github"
	BackendS3     = "s3"
	BackendVault  = "vault"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	API       APIConfig       `yaml:"api"`
	Firecrawl FirecrawlConfig `yaml:"firecrawl"`
	Storage   StorageConfig   `yaml:"storage"`
	Callback  CallbackConfig  `yaml:"callback"`
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Redis     RedisConfig     `yaml:"redis"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type APIConfig struct {
	Secret string `yaml:"secret"`
	// PublicURL is where the extraction service can reach this server.
	PublicURL string `yaml:"public_url"`
}

type FirecrawlConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type StorageConfig struct {
	Backend  string       `yaml:"backend"`
	Prefix   string       `yaml:"prefix"`
	Timezone string       `yaml:"timezone"`
	GitHub   GitHubConfig `yaml:"github"`
	S3       S3Config     `yaml:"s3"`
	Vault    VaultConfig  `yaml:"vault"`
}

type GitHubConfig struct {
	Token          string        `yaml:"token"`
	Owner          string        `yaml:"owner"`
	Repo           string        `yaml:"repo"`
	Branch         string        `yaml:"branch"`
	CommitterName  string        `yaml:"committer_name"`
	CommitterEmail string        `yaml:"committer_email"`
	APIURL         string        `yaml:"api_url"`
	Timeout        time.Duration `yaml:"timeout"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

type VaultConfig struct {
	Path        string `yaml:"path"`
	Git         bool   `yaml:"git"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

type CallbackConfig struct {
	Token     string        `yaml:"token"`
	Timeout   time.Duration `yaml:"timeout"`
	Dedupe    bool          `yaml:"dedupe"`
	DedupeTTL time.Duration `yaml:"dedupe_ttl"`
}

type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.API.PublicURL == "" {
		c.API.PublicURL = "http://localhost:3000"
	} else if !strings.Contains(c.API.PublicURL, "://") {
		c.API.PublicURL = "https://" + c.API.PublicURL
	}
	c.API.PublicURL = strings.TrimRight(c.API.PublicURL, "/")
	if c.Firecrawl.BaseURL == "" {
		c.Firecrawl.BaseURL = "https://api.firecrawl.dev"
	}
	if c.Firecrawl.Timeout == 0 {
		c.Firecrawl.Timeout = 30 * time.Second
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendGitHub
	}
	if c.Storage.Prefix == "" {
		c.Storage.Prefix = "inbox"
	}
	if c.Storage.Timezone == "" {
		c.Storage.Timezone = "UTC"
	}
	if c.Storage.GitHub.Branch == "" {
		c.Storage.GitHub.Branch = "main"
	}
	if c.Storage.GitHub.CommitterName == "" {
		c.Storage.GitHub.CommitterName = "Ingest Bot"
	}
	if c.Storage.GitHub.CommitterEmail == "" {
		c.Storage.GitHub.CommitterEmail = "bot@note-ingest.local"
	}
	if c.Storage.GitHub.Timeout == 0 {
		c.Storage.GitHub.Timeout = 30 * time.Second
	}
	if c.Storage.Vault.Path == "" {
		c.Storage.Vault.Path = "vault"
	}
	if c.Callback.Timeout == 0 {
		c.Callback.Timeout = 15 * time.Second
	}
	if c.Callback.DedupeTTL == 0 {
		c.Callback.DedupeTTL = 24 * time.Hour
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "note_ingest"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "outcomes"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "note_outcomes"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.API.Secret == "" {
		errs = append(errs, errors.New("api.secret is required"))
	}
	if c.Firecrawl.APIKey == "" {
		errs = append(errs, errors.New("firecrawl.api_key is required"))
	}
	if _, err := url.Parse(c.API.PublicURL); err != nil {
		errs = append(errs, fmt.Errorf("api.public_url: %w", err))
	}
	if _, err := time.LoadLocation(c.Storage.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("storage.timezone: %w", err))
	}

	switch c.Storage.Backend {
	case BackendGitHub:
		gh := c.Storage.GitHub
		if gh.Token == "" || gh.Owner == "" || gh.Repo == "" {
			errs = append(errs, errors.New("storage.github requires token, owner and repo"))
		}
	case BackendS3:
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("storage.s3.bucket is required"))
		}
	case BackendVault:
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not one of github, s3, vault", c.Storage.Backend))
	}

	if callbackPhases*c.Callback.Timeout >= c.Server.WriteTimeout {
		errs = append(errs, fmt.Errorf(
			"callback.timeout %s leaves no room to answer within server.write_timeout %s (needs %d x timeout below it)",
			c.Callback.Timeout, c.Server.WriteTimeout, callbackPhases,
		))
	}

	if c.Callback.Dedupe && c.Redis.Addr == "" {
		errs = append(errs, errors.New("callback.dedupe requires redis.addr"))
	}

	return errors.Join(errs...)
}

// WebhookURL is the callback address handed to the extraction service.
func (c *Config) WebhookURL() string {
	hook := c.API.PublicURL + "/api/callback"
	if c.Callback.Token != "" {
		hook += "?token=" + url.QueryEscape(c.Callback.Token)
	}
	return hook
}

// Location is the zone note dates are rendered in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Storage.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
