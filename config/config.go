package config

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	AdminToken        string `mapstructure:"ADMIN_TOKEN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Chat transport credentials.
	ChannelAccessToken string `mapstructure:"CHANNEL_ACCESS_TOKEN"`
	ChannelSecret      string `mapstructure:"CHANNEL_SECRET"`

	// Generative/embedding provider.
	OpenAIAPIKey string `mapstructure:"OPENAI_API_KEY"`

	// Event-master synchronization source.
	KintoneDomain        string `mapstructure:"KINTONE_DOMAIN"`
	KintoneEventAppID    string `mapstructure:"KINTONE_EVENT_APP_ID"`
	KintoneEventAPIToken string `mapstructure:"KINTONE_EVENT_API_TOKEN"`

	// Organization surface.
	OrganizationName      string  `mapstructure:"ORGANIZATION_NAME"`
	ActivityType          string  `mapstructure:"ACTIVITY_TYPE"`
	FaqTriggerPhrase      string  `mapstructure:"FAQ_TRIGGER_PHRASE"`
	SimilarityThreshold   float64 `mapstructure:"SIMILARITY_THRESHOLD"`
	StaffUserIDs          string  `mapstructure:"STAFF_USER_IDS"`
	FaqSingleWordTriggers string  `mapstructure:"FAQ_SINGLE_WORD_TRIGGERS"`
	MaxConversationPairs  int     `mapstructure:"MAX_CONVERSATION_PAIRS"`
	MaxContextHours       int     `mapstructure:"MAX_CONTEXT_HOURS"`
	FallbackImages        string  `mapstructure:"FALLBACK_IMAGES"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("ORGANIZATION_NAME", "コミュニティ")
	viper.SetDefault("ACTIVITY_TYPE", "活動")
	viper.SetDefault("FAQ_TRIGGER_PHRASE", "教えて")
	viper.SetDefault("SIMILARITY_THRESHOLD", 0.75)
	viper.SetDefault("MAX_CONVERSATION_PAIRS", 7)
	viper.SetDefault("MAX_CONTEXT_HOURS", 24)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if AppConfig.SimilarityThreshold < 0 || AppConfig.SimilarityThreshold > 1 {
		log.Fatalf("SIMILARITY_THRESHOLD must be between 0 and 1, got %v", AppConfig.SimilarityThreshold)
	}
}

// Validate reports missing required settings. Failures surface on the
// health-check path for operators and are never shown to chat users.
func Validate() error {
	var missing []string
	if AppConfig.ChannelAccessToken == "" {
		missing = append(missing, "CHANNEL_ACCESS_TOKEN")
	}
	if AppConfig.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if AppConfig.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if AppConfig.StaffUserIDs == "" {
		missing = append(missing, "STAFF_USER_IDS")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// FallbackImageList returns the pool of broadcast thumbnail URLs used when an
// event carries no image of its own.
func FallbackImageList() []string {
	return splitCSV(AppConfig.FallbackImages)
}

// StaffIDs returns the staff notification roster parsed from the
// comma-separated STAFF_USER_IDS setting.
func StaffIDs() []string {
	return splitCSV(AppConfig.StaffUserIDs)
}

// SingleWordFaqTriggers returns the administrator-configured single-word FAQ
// trigger list. The setting accepts a JSON array or CSV; unset or unparsable
// values yield an empty list.
func SingleWordFaqTriggers() []string {
	raw := strings.TrimSpace(AppConfig.FaqSingleWordTriggers)
	if raw == "" {
		return nil
	}

	var list []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			log.Printf("Failed to parse FAQ_SINGLE_WORD_TRIGGERS as JSON: %v", err)
			return nil
		}
	} else {
		list = splitCSV(raw)
	}

	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, w := range list {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
