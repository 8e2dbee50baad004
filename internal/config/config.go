// Package config загружает конфигурацию сервиса из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры,
// .env подхватывается через godotenv (удобно для локальной разработки).
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- HTTP ---
	HTTPPort        string        `envconfig:"HTTP_PORT" default:"8080"`
	PublicBaseURL   string        `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`

	// --- Database ---
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"waitlist"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"waitlist"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Redis (необязателен: без него лента читается напрямую из БД) ---
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Auth ---
	JWTSecret         string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer         string        `envconfig:"JWT_ISSUER" default:"zoggy-waitlist"`
	SessionTTL        time.Duration `envconfig:"SESSION_TTL" default:"720h"`
	VerificationTTL   time.Duration `envconfig:"EMAIL_VERIFICATION_TTL" default:"24h"`
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"20"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Admin ---
	AdminPasswordHash string        `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`
	AdminSessionTTL   time.Duration `envconfig:"ADMIN_SESSION_TTL" default:"12h"`
	AdminMaxAttempts  int           `envconfig:"ADMIN_MAX_ATTEMPTS" default:"3"`

	// --- Telegram ---
	TelegramBotToken    string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramBotUsername string        `envconfig:"TELEGRAM_BOT_USERNAME"`
	TelegramChannelID   int64         `envconfig:"TELEGRAM_CHANNEL_ID"`
	TelegramInviteCode  string        `envconfig:"TELEGRAM_JOIN_INVITE_CODE"`
	TelegramNonceTTL    time.Duration `envconfig:"TELEGRAM_NONCE_TTL" default:"15m"`
	TelegramMaxInflight int           `envconfig:"TELEGRAM_MAX_INFLIGHT" default:"16"`
	TelegramTimeoutSec  int           `envconfig:"TELEGRAM_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Mail ---
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"2525"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	MailFrom     string `envconfig:"EMAIL_FROM" default:"noreply@zoggy.com"`

	// --- Anti-fraud ---
	MaxSignupsPerIPPerDay int  `envconfig:"MAX_SIGNUPS_PER_IP_PER_DAY" default:"5"`
	AllowSelfRef          bool `envconfig:"ALLOW_SELF_REF" default:"false"`

	// --- Chest ---
	ChestCooldown    time.Duration `envconfig:"CHEST_COOLDOWN" default:"24h"`
	RewardTablesPath string        `envconfig:"REWARD_TABLES_PATH"`

	// --- Feed (лента фейковых выигрышей) ---
	FeedEnabled      bool          `envconfig:"FEED_ENABLED" default:"true"`
	FeedCap          int64         `envconfig:"FEED_CAP" default:"500"`
	FeedTickInterval time.Duration `envconfig:"FEED_TICK_INTERVAL" default:"5s"`
	FeedReadDefault  int           `envconfig:"FEED_READ_DEFAULT" default:"24"`
	FeedReadMax      int           `envconfig:"FEED_READ_MAX" default:"50"`
	FeedCacheTTL     time.Duration `envconfig:"FEED_CACHE_TTL" default:"10s"`
	FeedNameCooldown time.Duration `envconfig:"FEED_NAME_COOLDOWN" default:"90m"`
	FeedErrorBackoff time.Duration `envconfig:"FEED_ERROR_BACKOFF" default:"30s"`

	FeedMegaChance   float64       `envconfig:"FEED_MEGA_CHANCE" default:"0.02"`
	FeedLargeChance  float64       `envconfig:"FEED_LARGE_CHANCE" default:"0.08"`
	FeedMediumChance float64       `envconfig:"FEED_MEDIUM_CHANCE" default:"0.30"`
	FeedMegaGap      time.Duration `envconfig:"FEED_MEGA_GAP" default:"3h"`
	FeedLargeGap     time.Duration `envconfig:"FEED_LARGE_GAP" default:"1h"`
	FeedBaseDelayMin time.Duration `envconfig:"FEED_BASE_DELAY_MIN" default:"60s"`
	FeedBaseDelayMax time.Duration `envconfig:"FEED_BASE_DELAY_MAX" default:"120s"`

	FeedMicroBurstMin    time.Duration `envconfig:"FEED_MICRO_BURST_MIN_INTERVAL" default:"6m"`
	FeedMicroBurstMax    time.Duration `envconfig:"FEED_MICRO_BURST_MAX_INTERVAL" default:"10m"`
	FeedMicroBurstChance float64       `envconfig:"FEED_MICRO_BURST_CHANCE" default:"0.3"`

	FeedLullMin         time.Duration `envconfig:"FEED_LULL_MIN_INTERVAL" default:"10m"`
	FeedLullMax         time.Duration `envconfig:"FEED_LULL_MAX_INTERVAL" default:"15m"`
	FeedLullChance      float64       `envconfig:"FEED_LULL_CHANCE" default:"0.2"`
	FeedLullDurationMin time.Duration `envconfig:"FEED_LULL_DURATION_MIN" default:"4m"`
	FeedLullDurationMax time.Duration `envconfig:"FEED_LULL_DURATION_MAX" default:"5m"`
	FeedLullRecheck     time.Duration `envconfig:"FEED_LULL_RECHECK" default:"30s"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// TelegramEnabled — бот поднимается, только если задан токен и канал.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChannelID != 0
}

// TelegramJoinLink возвращает ссылку на заявку во вступление в канал.
func (c *Config) TelegramJoinLink() string {
	return "https://t.me/+" + c.TelegramInviteCode
}

// Validate проверяет инварианты, которые envconfig проверить не может.
func (c *Config) Validate() error {
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET должен быть не короче 16 символов")
	}
	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS должен быть > 0")
	}
	if c.ChestCooldown <= 0 {
		return fmt.Errorf("CHEST_COOLDOWN должен быть > 0")
	}
	if c.FeedCap <= 0 {
		return fmt.Errorf("FEED_CAP должен быть > 0")
	}
	if c.FeedTickInterval < time.Second {
		return fmt.Errorf("FEED_TICK_INTERVAL должен быть >= 1s")
	}
	if c.FeedReadDefault <= 0 || c.FeedReadMax < c.FeedReadDefault {
		return fmt.Errorf("некорректные FEED_READ_DEFAULT/FEED_READ_MAX")
	}
	if err := checkChance("FEED_MEGA_CHANCE", c.FeedMegaChance); err != nil {
		return err
	}
	if err := checkChance("FEED_LARGE_CHANCE", c.FeedLargeChance); err != nil {
		return err
	}
	if err := checkChance("FEED_MEDIUM_CHANCE", c.FeedMediumChance); err != nil {
		return err
	}
	if sum := c.FeedMegaChance + c.FeedLargeChance + c.FeedMediumChance; sum > 1 {
		return fmt.Errorf("сумма шансов mega/large/medium = %.3f, должна быть <= 1", sum)
	}
	if err := checkChance("FEED_MICRO_BURST_CHANCE", c.FeedMicroBurstChance); err != nil {
		return err
	}
	if err := checkChance("FEED_LULL_CHANCE", c.FeedLullChance); err != nil {
		return err
	}
	if c.FeedBaseDelayMin <= 0 || c.FeedBaseDelayMax < c.FeedBaseDelayMin {
		return fmt.Errorf("некорректные FEED_BASE_DELAY_MIN/FEED_BASE_DELAY_MAX")
	}
	if c.FeedMicroBurstMax < c.FeedMicroBurstMin {
		return fmt.Errorf("FEED_MICRO_BURST_MAX_INTERVAL меньше MIN")
	}
	if c.FeedLullMax < c.FeedLullMin || c.FeedLullDurationMax < c.FeedLullDurationMin {
		return fmt.Errorf("некорректные интервалы затиший (FEED_LULL_*)")
	}
	if c.TelegramBotToken != "" && c.TelegramChannelID == 0 {
		return fmt.Errorf("TELEGRAM_CHANNEL_ID обязателен, если задан TELEGRAM_BOT_TOKEN")
	}
	return nil
}

func checkChance(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s должен быть в диапазоне [0, 1], получено %v", name, v)
	}
	return nil
}

// Load читает .env (если есть) и переменные окружения, заполняет структуру Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("Файл .env не найден, читаем только окружение")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
