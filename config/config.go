package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret signs tokens when JWT_SECRET is unset. Release mode
// refuses to start with it.
const DefaultJWTSecret = "food_delivery_super_secret_2024"

type Config struct {
	Port    string
	GinMode string

	// JWTSecret signs session tokens
	JWTSecret []byte
	TokenTTL  time.Duration

	StoreDriver string
	DataFile    string
	SQLitePath  string
	PostgresDSN string

	SessionBackend string
	RedisAddr      string
	SessionTTL     time.Duration

	// KafkaBrokers empty disables order events
	KafkaBrokers []string
	KafkaTopic   string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	SMSCountryCode   string

	DeepSeekAPIKey      string
	DeepSeekBaseURL     string
	DeepSeekChatModel   string
	DeepSeekVisionModel string

	DefaultLat float64
	DefaultLng float64

	// SimulationMode turns on the random status nudge while tracking
	SimulationMode bool

	LogLevel  string
	LogFormat string
}

// Load reads the environment, seeded from .env when one exists.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", ""),

		JWTSecret: []byte(getEnv("JWT_SECRET", DefaultJWTSecret)),
		TokenTTL:  getDuration("TOKEN_TTL", 72*time.Hour),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "json")),
		DataFile:    getEnv("DATA_FILE", "data/app_data.json"),
		SQLitePath:  getEnv("SQLITE_PATH", "food_delivery.db"),
		PostgresDSN: getEnv("POSTGRES_DSN", ""),

		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		SessionTTL:     getDuration("SESSION_TTL", 24*time.Hour),

		KafkaBrokers: splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "order-events"),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFrom:       getEnv("TWILIO_PHONE_NUMBER", ""),
		SMSCountryCode:   getEnv("SMS_DEFAULT_COUNTRY_CODE", "+91"),

		DeepSeekAPIKey:      getEnv("DEEPSEEK_API_KEY", ""),
		DeepSeekBaseURL:     getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com/v1"),
		DeepSeekChatModel:   getEnv("DEEPSEEK_CHAT_MODEL", "deepseek-chat"),
		DeepSeekVisionModel: getEnv("DEEPSEEK_VISION_MODEL", "deepseek-vision"),

		DefaultLat: getFloat("DEFAULT_LAT", 12.9716),
		DefaultLng: getFloat("DEFAULT_LNG", 77.5946),

		SimulationMode: getBool("SIMULATION_MODE", false),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

func getFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
