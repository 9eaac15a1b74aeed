package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dkeye/Trivia/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode      string       `mapstructure:"mode"`
	Port      int          `mapstructure:"port"`
	LogLevel  string       `mapstructure:"log_level"`
	Secret    string       `mapstructure:"secret"`
	JWTSecret string       `mapstructure:"jwt_secret"`
	Trivia    TriviaConfig `mapstructure:"trivia"`
	Redis     RedisConfig  `mapstructure:"redis"`
	Game      GameConfig   `mapstructure:"game"`
	WS        WSConfig     `mapstructure:"ws"`
}

type TriviaConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RedisConfig is optional; an empty Addr disables the Redis sink.
type RedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

type GameConfig struct {
	QuestionCount int           `mapstructure:"question_count"`
	QuestionTime  int           `mapstructure:"question_time"`
	Region        string        `mapstructure:"region"`
	Category      string        `mapstructure:"category"`
	Difficulty    string        `mapstructure:"difficulty"`
	MaxPlayers    int           `mapstructure:"max_players"`
	IntroGrace    time.Duration `mapstructure:"intro_grace"`
	MaxPoints     int           `mapstructure:"max_points"`
	IDLength      int           `mapstructure:"id_length"`
}

// Settings are the defaults every new session starts from.
func (g GameConfig) Settings() domain.Settings {
	return domain.Settings{
		QuestionCount: g.QuestionCount,
		QuestionTime:  g.QuestionTime,
		Region:        g.Region,
		Category:      g.Category,
		Difficulty:    g.Difficulty,
	}
}

type WSConfig struct {
	ReadLimit    int64         `mapstructure:"read_limit"`
	PingPeriod   time.Duration `mapstructure:"ping_period"`
	RateLimit    int           `mapstructure:"rate_limit"`
	RateInterval time.Duration `mapstructure:"rate_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("secret", "")
	v.SetDefault("jwt_secret", "")

	v.SetDefault("trivia.base_url", "https://the-trivia-api.com/v2")
	v.SetDefault("trivia.timeout", "5s")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel_prefix", "trivia")

	v.SetDefault("game.question_count", 10)
	v.SetDefault("game.question_time", 30)
	v.SetDefault("game.region", "SE")
	v.SetDefault("game.category", "movies")
	v.SetDefault("game.difficulty", "easy")
	v.SetDefault("game.max_players", 10)
	v.SetDefault("game.intro_grace", "3s")
	v.SetDefault("game.max_points", 1000)
	v.SetDefault("game.id_length", 6)

	v.SetDefault("ws.read_limit", 32768)
	v.SetDefault("ws.ping_period", "54s")
	v.SetDefault("ws.rate_limit", 20)
	v.SetDefault("ws.rate_interval", "1s")
}

// Load reads config/config.<CONFIG_ENV>.yaml if present. TRIVIA_* env vars
// win over the file, e.g. TRIVIA_REDIS_ADDR for redis.addr.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("TRIVIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("trivia", cfg.Trivia.BaseURL).Bool("redis", cfg.Redis.Addr != "").Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if err := c.Game.Settings().Validate(); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	if c.Game.MaxPlayers < 1 {
		return fmt.Errorf("game.max_players must be positive, got %d", c.Game.MaxPlayers)
	}
	if c.Game.IDLength < 4 {
		return fmt.Errorf("game.id_length must be at least 4, got %d", c.Game.IDLength)
	}
	if c.Game.IntroGrace < 0 {
		return fmt.Errorf("game.intro_grace must not be negative")
	}
	if c.Trivia.BaseURL == "" {
		return fmt.Errorf("trivia.base_url is required")
	}
	return nil
}
