// Package config loads process configuration for the conversation core using
// viper, with fsnotify-driven hot reload for the knobs that are safe to
// change without a restart (confidence threshold, order limits, feature
// toggles). Connection strings and ports are read once at startup.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// UnknownIngredientPolicy controls how the Command Bus treats an add-modifier
// naming an ingredient the restaurant has never defined.
type UnknownIngredientPolicy string

const (
	// PolicyWarn accepts the modifier and returns a MODIFIER_ADD_NOT_ALLOWED
	// warning result, rather than blocking a turn on an unrecognized
	// ingredient.
	PolicyWarn UnknownIngredientPolicy = "warn"
	// PolicyReject rejects the modifier with MODIFIER_ADD_NOT_ALLOWED.
	PolicyReject UnknownIngredientPolicy = "reject"
)

// Options controls how Load locates and parses the config file.
type Options struct {
	ConfigName   string
	ConfigPaths  []string
	ConfigType   string
	EnvPrefix    string
	AutomaticEnv bool
}

// DefaultOptions is the conventional layout: a config.yaml in the working
// directory or a ./config subdir.
func DefaultOptions() Options {
	return Options{
		ConfigName:   "config",
		ConfigPaths:  []string{".", "./config", "./configs"},
		ConfigType:   "yaml",
		EnvPrefix:    "DRIVETHRU",
		AutomaticEnv: true,
	}
}

// Settings is a plain value snapshot of the process configuration: every
// field Config tracks, with no mutex, so it can be copied freely and passed
// by value to collaborators (the Command Bus, the Turn Orchestrator) without
// tripping go vet's copylocks check.
type Settings struct {
	// ServerPort is the gin HTTP boundary's listen port (cmd/conversation-service only).
	ServerPort int
	// JWTSigningSecret authenticates the HTTP boundary's Turn API callers
	// (cmd/conversation-service only); the core pipeline itself has no
	// notion of a caller identity.
	JWTSigningSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PostgresDSN string

	KafkaBrokers      []string
	KafkaTopic        string
	KafkaRequiredAcks string

	ObjectStoreBaseURL string

	OpenAIAPIKey string
	TTSAPIKey    string
	TTSModel     string

	// ConfidenceThreshold is the minimum Intent Classifier confidence below
	// which a turn gets the canned didn't-understand reply and runs no state
	// transition or command; the classified intent is still reported.
	ConfidenceThreshold           float64
	MaxQuantityPerItem            int
	MaxItemsPerOrder              int
	MaxOrderTotal                 float64
	TaxRate                       float64
	AllowNegativeInventory        bool
	EnableCustomizationValidation bool
	EnableInventoryChecking       bool
	EnableOrderLimits             bool

	SessionTTL             time.Duration
	PerSessionTurnDeadline time.Duration

	LLMTimeout         time.Duration
	LLMModel           string
	LLMRatePerSecond   float64
	LLMRateBurst       int
	TTSTimeout         time.Duration
	TTSVoice           string
	TTSLanguage        string
	DatabaseTimeout    time.Duration
	ObjectStoreTimeout time.Duration

	UnknownIngredientPolicy UnknownIngredientPolicy
}

// Config is the live, hot-reloadable process configuration. It is always
// handled through a pointer; collaborators that need a read-only copy of
// its values take a Settings snapshot instead (see Snapshot).
type Config struct {
	mu sync.RWMutex
	v  *viper.Viper

	Settings
}

// Load reads configuration from file, environment, and defaults, and starts
// watching the config file for changes to the hot-reloadable fields.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	v.SetConfigName(opts.ConfigName)
	v.SetConfigType(opts.ConfigType)
	for _, p := range opts.ConfigPaths {
		v.AddConfigPath(p)
	}

	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if opts.AutomaticEnv {
		v.AutomaticEnv()
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{v: v}
	cfg.refresh()

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg.refresh()
	})
	v.WatchConfig()

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.jwt_signing_secret", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("postgres.dsn", "postgres://localhost:5432/drivethru?sslmode=disable")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "drivethru.orders")
	v.SetDefault("kafka.required_acks", "local")

	v.SetDefault("objectstore.base_url", "https://cdn.drivethru.example/audio")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("tts.api_key", "")
	v.SetDefault("tts.model", "tts-1")

	v.SetDefault("order.confidence_threshold", 0.6)
	v.SetDefault("order.max_quantity_per_item", 10)
	v.SetDefault("order.max_items_per_order", 50)
	v.SetDefault("order.max_order_total", 200.00)
	v.SetDefault("order.tax_rate", 0.0825)
	v.SetDefault("order.allow_negative_inventory", true)
	v.SetDefault("order.enable_customization_validation", true)
	v.SetDefault("order.enable_inventory_checking", true)
	v.SetDefault("order.enable_order_limits", true)
	v.SetDefault("order.unknown_ingredient_policy", string(PolicyWarn))

	v.SetDefault("session.ttl", "1800s")
	v.SetDefault("session.per_turn_deadline", "30s")

	v.SetDefault("llm.timeout", "20s")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.rate_per_second", 2.0)
	v.SetDefault("llm.rate_burst", 4)
	v.SetDefault("tts.timeout", "15s")
	v.SetDefault("tts.voice", "default")
	v.SetDefault("tts.language", "en-US")
	v.SetDefault("database.timeout", "5s")
	v.SetDefault("objectstore.timeout", "10s")
}

func (c *Config) refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := c.v
	c.ServerPort = v.GetInt("server.port")
	c.JWTSigningSecret = v.GetString("server.jwt_signing_secret")

	c.RedisAddr = v.GetString("redis.addr")
	c.RedisPassword = v.GetString("redis.password")
	c.RedisDB = v.GetInt("redis.db")

	c.PostgresDSN = v.GetString("postgres.dsn")

	c.KafkaBrokers = v.GetStringSlice("kafka.brokers")
	c.KafkaTopic = v.GetString("kafka.topic")
	c.KafkaRequiredAcks = v.GetString("kafka.required_acks")

	c.ObjectStoreBaseURL = v.GetString("objectstore.base_url")

	c.OpenAIAPIKey = v.GetString("openai.api_key")
	c.TTSAPIKey = v.GetString("tts.api_key")
	c.TTSModel = v.GetString("tts.model")

	c.ConfidenceThreshold = v.GetFloat64("order.confidence_threshold")
	c.MaxQuantityPerItem = v.GetInt("order.max_quantity_per_item")
	c.MaxItemsPerOrder = v.GetInt("order.max_items_per_order")
	c.MaxOrderTotal = v.GetFloat64("order.max_order_total")
	c.TaxRate = v.GetFloat64("order.tax_rate")
	c.AllowNegativeInventory = v.GetBool("order.allow_negative_inventory")
	c.EnableCustomizationValidation = v.GetBool("order.enable_customization_validation")
	c.EnableInventoryChecking = v.GetBool("order.enable_inventory_checking")
	c.EnableOrderLimits = v.GetBool("order.enable_order_limits")
	c.UnknownIngredientPolicy = UnknownIngredientPolicy(v.GetString("order.unknown_ingredient_policy"))

	c.SessionTTL = v.GetDuration("session.ttl")
	c.PerSessionTurnDeadline = v.GetDuration("session.per_turn_deadline")

	c.LLMTimeout = v.GetDuration("llm.timeout")
	c.LLMModel = v.GetString("llm.model")
	c.LLMRatePerSecond = v.GetFloat64("llm.rate_per_second")
	c.LLMRateBurst = v.GetInt("llm.rate_burst")
	c.TTSTimeout = v.GetDuration("tts.timeout")
	c.TTSVoice = v.GetString("tts.voice")
	c.TTSLanguage = v.GetString("tts.language")
	c.DatabaseTimeout = v.GetDuration("database.timeout")
	c.ObjectStoreTimeout = v.GetDuration("objectstore.timeout")
}

// Snapshot returns a copy of the current configuration values, safe to read
// without holding the config's lock for the caller's lifetime.
func (c *Config) Snapshot() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Settings
}
