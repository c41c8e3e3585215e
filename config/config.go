package config

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds environment driven configuration values.
// Secrets have no defaults and must come from the config file or the environment.
type AppConfig struct {
	AppPort               string
	JWTSecret             string
	PairingPasscodeHash   string
	TokenTTLHours         int
	RateLimitPerMinute    int
	PairAttemptsPerMinute int
	AllowedOrigins        []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database
	DBDriver    string
	DatabaseURI string
	DBPath      string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Ledger
	LedgerBackend  string
	CheckinReward  int
	UnlockCost     int
	GenerateCost   int
	ChatCost       int
	Timezone       string
	RedisLedgerKey string
	// Redis
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Generation service
	GeneratorBaseURL    string
	GeneratorAPIKey     string
	GeneratorTextModel  string
	GeneratorImageModel string
	GeneratorTimeoutSec int
	// Generated images
	MediaDir     string
	MediaBaseURL string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// DefaultPairAttemptsPerMinute is the pairing throttle when none is configured.
const DefaultPairAttemptsPerMinute = 5

// Ledger backends.
const (
	BackendDatabase = "database"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// DefaultPath is where Load looks for the JSON config file.
var DefaultPath = filepath.Join("config", "config.json")

var (
	cfg    AppConfig
	loaded bool
	mu     sync.Mutex
)

// settings maps every config key to its default and the environment
// variable that overrides it.
var settings = []struct {
	key string
	env string
	def any
}{
	{"app.port", "APP_PORT", "8080"},
	{"app.jwt_secret", "JWT_SECRET", ""},
	{"app.pairing_passcode_hash", "PAIRING_PASSCODE_HASH", ""},
	{"app.token_ttl_hours", "TOKEN_TTL_HOURS", 24 * 30},
	{"app.rate_limit_per_minute", "RATE_LIMIT_PER_MINUTE", 60},
	{"app.pair_attempts_per_minute", "PAIR_ATTEMPTS_PER_MINUTE", DefaultPairAttemptsPerMinute},
	{"app.allowed_origins", "CORS_ALLOWED_ORIGINS", []string{"*"}},
	{"gin.mode", "GIN_MODE", "release"},
	{"gin.path", "GIN_PATH", "logs/go_gin.log"},
	{"database.driver", "DB_DRIVER", "sqlite"},
	{"database.uri", "DATABASE_URI", ""},
	{"database.path", "DB_PATH", "data/nailgrow.db"},
	{"database.host", "DB_HOST", "127.0.0.1"},
	{"database.port", "DB_PORT", "3306"},
	{"database.user", "DB_USER", "root"},
	{"database.password", "DB_PASSWORD", ""},
	{"database.name", "DB_NAME", "nailgrow"},
	{"ledger.backend", "LEDGER_BACKEND", BackendDatabase},
	{"ledger.checkin_reward", "CHECKIN_REWARD", 1},
	{"ledger.unlock_cost", "UNLOCK_COST", 1},
	{"ledger.generate_cost", "GENERATE_COST", 1},
	{"ledger.chat_cost", "CHAT_COST", 0},
	{"ledger.timezone", "TIMEZONE", "Local"},
	{"ledger.redis_key", "REDIS_LEDGER_KEY", "nailgrow:ledger"},
	{"redis.host", "REDIS_HOST", "127.0.0.1"},
	{"redis.port", "REDIS_PORT", 6379},
	{"redis.db", "REDIS_DB", 0},
	{"redis.password", "REDIS_PASSWORD", ""},
	{"generator.base_url", "GENERATOR_BASE_URL", ""},
	{"generator.api_key", "GENERATOR_API_KEY", ""},
	{"generator.text_model", "GENERATOR_TEXT_MODEL", "gpt-4o-mini"},
	{"generator.image_model", "GENERATOR_IMAGE_MODEL", "gpt-image-1"},
	{"generator.timeout_sec", "GENERATOR_TIMEOUT_SEC", 60},
	{"media.dir", "MEDIA_DIR", "static/media"},
	{"media.base_url", "MEDIA_BASE_URL", ""},
	{"log.level", "LOG_LEVEL", "info"},
	{"log.path", "LOG_PATH", ""},
	{"log.max_size_mb", "LOG_MAX_SIZE_MB", 100},
	{"log.max_backups", "LOG_MAX_BACKUPS", 3},
	{"log.max_age_days", "LOG_MAX_AGE_DAYS", 7},
	{"log.compress", "LOG_COMPRESS", false},
}

// Load loads the configuration once. Precedence: config file -> defaults ->
// environment variable overrides.
func Load() AppConfig {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return cfg
	}
	path := os.Getenv("NAILGROW_CONFIG")
	if path == "" {
		path = DefaultPath
	}
	c, err := read(path)
	if err != nil {
		log.Fatalf("load config %s: %v", path, err)
	}
	cfg = c
	loaded = true
	return cfg
}

// LoadFrom replaces the cached configuration with the one read from path.
func LoadFrom(path string) (AppConfig, error) {
	c, err := read(path)
	if err != nil {
		return AppConfig{}, err
	}
	mu.Lock()
	cfg = c
	loaded = true
	mu.Unlock()
	return c, nil
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	mu.Lock()
	ok := loaded
	c := cfg
	mu.Unlock()
	if !ok {
		return Load()
	}
	return c
}

// Set installs c as the cached configuration. Intended for tests and CLI
// flag overrides.
func Set(c AppConfig) {
	mu.Lock()
	cfg = c
	loaded = true
	mu.Unlock()
}

// Validate reports settings that must be present before serving HTTP.
func (c AppConfig) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set in environment variables or config")
	}
	switch c.LedgerBackend {
	case BackendDatabase, BackendRedis, BackendMemory:
	default:
		return errors.New("ledger backend must be one of database, redis, memory")
	}
	return nil
}

// Location resolves the configured timezone, falling back to the local zone.
func (c AppConfig) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("unknown timezone %q, using local time: %v", c.Timezone, err)
		return time.Local
	}
	return loc
}

func read(path string) (AppConfig, error) {
	// a .env file in the working directory fills unset variables
	_ = godotenv.Load()

	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		_ = v.BindEnv(s.key, s.env)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return AppConfig{}, err
			}
		}
	}

	return AppConfig{
		AppPort:               v.GetString("app.port"),
		JWTSecret:             v.GetString("app.jwt_secret"),
		PairingPasscodeHash:   v.GetString("app.pairing_passcode_hash"),
		TokenTTLHours:         v.GetInt("app.token_ttl_hours"),
		RateLimitPerMinute:    v.GetInt("app.rate_limit_per_minute"),
		PairAttemptsPerMinute: v.GetInt("app.pair_attempts_per_minute"),
		AllowedOrigins:        splitList(v.GetStringSlice("app.allowed_origins")),
		GinMode:               v.GetString("gin.mode"),
		GinPath:               v.GetString("gin.path"),
		DBDriver:              strings.ToLower(v.GetString("database.driver")),
		DatabaseURI:           v.GetString("database.uri"),
		DBPath:                v.GetString("database.path"),
		DBHost:                v.GetString("database.host"),
		DBPort:                v.GetString("database.port"),
		DBUser:                v.GetString("database.user"),
		DBPassword:            v.GetString("database.password"),
		DBName:                v.GetString("database.name"),
		LedgerBackend:         strings.ToLower(v.GetString("ledger.backend")),
		CheckinReward:         v.GetInt("ledger.checkin_reward"),
		UnlockCost:            v.GetInt("ledger.unlock_cost"),
		GenerateCost:          v.GetInt("ledger.generate_cost"),
		ChatCost:              v.GetInt("ledger.chat_cost"),
		Timezone:              v.GetString("ledger.timezone"),
		RedisLedgerKey:        v.GetString("ledger.redis_key"),
		RedisHost:             v.GetString("redis.host"),
		RedisPort:             v.GetInt("redis.port"),
		RedisDB:               v.GetInt("redis.db"),
		RedisPassword:         v.GetString("redis.password"),
		GeneratorBaseURL:      v.GetString("generator.base_url"),
		GeneratorAPIKey:       v.GetString("generator.api_key"),
		GeneratorTextModel:    v.GetString("generator.text_model"),
		GeneratorImageModel:   v.GetString("generator.image_model"),
		GeneratorTimeoutSec:   v.GetInt("generator.timeout_sec"),
		MediaDir:              v.GetString("media.dir"),
		MediaBaseURL:          v.GetString("media.base_url"),
		LogLevel:              v.GetString("log.level"),
		LogPath:               v.GetString("log.path"),
		LogMaxSizeMB:          v.GetInt("log.max_size_mb"),
		LogMaxBackups:         v.GetInt("log.max_backups"),
		LogMaxAgeDays:         v.GetInt("log.max_age_days"),
		LogCompress:           v.GetBool("log.compress"),
	}, nil
}

// splitList accepts both JSON arrays and comma separated env values.
func splitList(raw []string) []string {
	items := []string{}
	for _, entry := range raw {
		for _, item := range strings.Split(entry, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				items = append(items, trimmed)
			}
		}
	}
	return items
}
