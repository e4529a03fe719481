package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	envPort                  = "PORT"
	envServerReadTimeout     = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout    = "SERVER_WRITE_TIMEOUT"
	envServerShutdownTimeout = "SERVER_SHUTDOWN_TIMEOUT"
	envRedisAddr             = "REDIS_ADDR"
	envRedisPassword         = "REDIS_PASSWORD"
	envRedisDB               = "REDIS_DB"
	envRedisKeyPrefix        = "REDIS_KEY_PREFIX"
	envTokenKey              = "TOKEN_KEY"
	envTokenType             = "TOKEN_TYPE"
	envTokenSeparator        = "TOKEN_SEPARATOR"
	envTokenValidity         = "TOKEN_VALIDITY_MINUTES"
	envTokenAuthoritiesKey   = "TOKEN_AUTHORITIES_KEY"
)

const (
	defaultServerPort         = "8080"
	defaultServerReadTimeout  = 10 * time.Second
	defaultServerWriteTimeout = 10 * time.Second
	defaultServerShutdown     = 10 * time.Second
	defaultRedisAddr          = "localhost:6379"
	defaultRedisKeyPrefix     = "userservice:"
	defaultTokenType          = "Bearer"
	defaultTokenSeparator     = ":"
	defaultTokenValidity      = 60 * time.Minute
	defaultAuthoritiesKey     = "authorities"
	minTokenKeyLength         = 32
	minUniqueCharsInKey       = 16
	minRepeatedCharThreshold  = 4
	maxRepeatedChars          = 2

	errPortRequiredFmt         = "PORT must be set"
	errRedisAddrRequiredFmt    = "REDIS_ADDR must be set"
	errTokenKeyRequiredFmt     = "TOKEN_KEY must be set"
	errTokenKeyMinLengthFmt    = "TOKEN_KEY must be at least %d characters"
	errTokenKeyLowEntropyFmt   = "TOKEN_KEY has insufficient entropy (appears non-random). Use a cryptographically secure random string."
	errTokenTypeRequiredFmt    = "TOKEN_TYPE must be set"
	errSeparatorRequiredFmt    = "TOKEN_SEPARATOR must be set"
	errValidityPositiveFmt     = "TOKEN_VALIDITY_MINUTES must be positive"
	errInvalidConfigurationFmt = "invalid configuration: %w"
)

type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	Token  TokenConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// TokenConfig carries the process-wide token parameters. It is loaded once at
// startup and never mutated afterwards, so concurrent reads are safe.
type TokenConfig struct {
	Key string
	// Type is the scheme label presented in the Authorization header,
	// e.g. "Bearer".
	Type string
	// Separator joins id and email in the token subject, and role names in
	// the authorities claim.
	Separator string
	Validity  time.Duration
	// AuthoritiesKey is the claim name under which role names are stored.
	AuthoritiesKey string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv(envPort, defaultServerPort),
			ReadTimeout:     getDurationEnv(envServerReadTimeout, defaultServerReadTimeout),
			WriteTimeout:    getDurationEnv(envServerWriteTimeout, defaultServerWriteTimeout),
			ShutdownTimeout: getDurationEnv(envServerShutdownTimeout, defaultServerShutdown),
		},
		Redis: RedisConfig{
			Addr:      getEnv(envRedisAddr, defaultRedisAddr),
			Password:  os.Getenv(envRedisPassword),
			DB:        getIntEnv(envRedisDB, 0),
			KeyPrefix: getEnv(envRedisKeyPrefix, defaultRedisKeyPrefix),
		},
		Token: TokenConfig{
			Key:            os.Getenv(envTokenKey),
			Type:           getEnv(envTokenType, defaultTokenType),
			Separator:      getEnv(envTokenSeparator, defaultTokenSeparator),
			Validity:       getDurationEnv(envTokenValidity, defaultTokenValidity),
			AuthoritiesKey: getEnv(envTokenAuthoritiesKey, defaultAuthoritiesKey),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf(errInvalidConfigurationFmt, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf(errPortRequiredFmt)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf(errRedisAddrRequiredFmt)
	}

	if c.Token.Key == "" {
		return fmt.Errorf(errTokenKeyRequiredFmt)
	}

	if len(c.Token.Key) < minTokenKeyLength {
		return fmt.Errorf(errTokenKeyMinLengthFmt, minTokenKeyLength)
	}

	if !hasMinimumEntropy(c.Token.Key) {
		return fmt.Errorf(errTokenKeyLowEntropyFmt)
	}

	if c.Token.Type == "" {
		return fmt.Errorf(errTokenTypeRequiredFmt)
	}

	if c.Token.Separator == "" {
		return fmt.Errorf(errSeparatorRequiredFmt)
	}

	if c.Token.Validity <= 0 {
		return fmt.Errorf(errValidityPositiveFmt)
	}

	return nil
}

func hasMinimumEntropy(key string) bool {
	if len(key) < minTokenKeyLength {
		return false
	}

	charCounts := make(map[rune]int)
	for _, char := range key {
		charCounts[char]++
	}

	uniqueChars := len(charCounts)
	if uniqueChars < minUniqueCharsInKey {
		return false
	}

	repeatedChars := 0
	for _, count := range charCounts {
		if count > len(key)/minRepeatedCharThreshold {
			repeatedChars++
		}
	}

	return repeatedChars <= maxRepeatedChars
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}
