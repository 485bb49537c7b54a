// Load envs from .env
// Load YAML config
// Validate config
// Provide default values

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Blacklist holds the three independent exclusion lists. Matching is
// substring-contains against the scraped field.
type Blacklist struct {
	Companies  []string `yaml:"companies"`
	Recruiters []string `yaml:"recruiters"`
	Jobs       []string `yaml:"jobs"`
}

type Config struct {
	//Search criteria
	Keywords       []string  `yaml:"keywords"`
	CityCodes      []string  `yaml:"city_codes"`
	ExpectedSalary []int     `yaml:"expected_salary"` // [minK] or [minK, maxK]
	Blacklist      Blacklist `yaml:"blacklist"`

	//Greeting
	SayHi        string `yaml:"say_hi"`
	Introduction string `yaml:"introduction"`

	//Pacing
	DailyCap               int `yaml:"daily_cap"`
	DelayMinSeconds        int `yaml:"delay_min_seconds"`
	DelayMaxSeconds        int `yaml:"delay_max_seconds"`
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures"`

	//Toggles
	FilterDeadHR      bool     `yaml:"filter_dead_hr"`
	DeadStatus        []string `yaml:"dead_status"`
	EnableAI          bool     `yaml:"enable_ai"`
	StrictAIFilter    bool     `yaml:"strict_ai_filter"`
	RecordFailedSends bool     `yaml:"record_failed_sends"`
	SendImgResume     bool     `yaml:"send_img_resume"`
	ResumeImagePath   string   `yaml:"resume_image_path"`

	//Browser
	Headless    bool   `yaml:"headless"`
	CookiesPath string `yaml:"cookies_path"`

	//Storage
	LedgerBackend string `yaml:"ledger_backend"` // file | postgres
	LedgerPath    string `yaml:"ledger_path"`
	PostgresURL   string `yaml:"postgres_url" env:"POSTGRES_URL"`
	RedisURL      string `yaml:"redis_url" env:"REDIS_URL"`
	CacheTTLHours int    `yaml:"cache_ttl_hours"`

	//Scheduling ("" = run once)
	Schedule string `yaml:"schedule"`

	//Notifications
	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`

	//AI provider
	AIAPIKey  string `env:"AI_API_KEY"`
	AIModel   string `yaml:"ai_model"`
	AIBaseURL string `yaml:"ai_base_url"`
}

// Load reads .env, then the YAML config at path (default
// configs/config.yaml), applies env overrides and defaults, and
// validates. A missing required preference is fatal here, before any
// browsing begins.
func Load(path string) *Config {
	_ = godotenv.Load()

	if path == "" {
		path = "configs/config.yaml"
	}

	//Load yaml config
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warning: Could not read %s: %v", path, err)
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", path, err)
		}
	}

	//Override with env vars
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			log.Fatalf("Invalid TELEGRAM_CHAT_ID: %v", err)
		}
		cfg.TelegramChatID = id
	}
	if key := os.Getenv("AI_API_KEY"); key != "" {
		cfg.AIAPIKey = key
	}
	if url := os.Getenv("POSTGRES_URL"); url != "" {
		cfg.PostgresURL = url
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.RedisURL = url
	}

	applyDefaults(cfg)
	validate(cfg)

	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.DailyCap == 0 {
		cfg.DailyCap = 100
	}
	if cfg.DelayMinSeconds == 0 {
		cfg.DelayMinSeconds = 3
	}
	if cfg.DelayMaxSeconds == 0 {
		cfg.DelayMaxSeconds = 20
	}
	if cfg.MaxConsecutiveFailures == 0 {
		cfg.MaxConsecutiveFailures = 5
	}
	if len(cfg.DeadStatus) == 0 {
		cfg.DeadStatus = []string{"半年前活跃", "年前活跃", "数月前活跃"}
	}
	if cfg.LedgerBackend == "" {
		cfg.LedgerBackend = "file"
	}
	if cfg.LedgerPath == "" {
		cfg.LedgerPath = ".ledger"
	}
	if cfg.CookiesPath == "" {
		cfg.CookiesPath = ".cookies"
	}
	if cfg.CacheTTLHours == 0 {
		cfg.CacheTTLHours = 6
	}
}

//Validate required fields
func validate(cfg *Config) {
	if len(cfg.Keywords) == 0 {
		log.Fatal("at least one keyword is required")
	}
	if len(cfg.CityCodes) == 0 {
		log.Fatal("at least one city code is required")
	}
	if cfg.SayHi == "" {
		log.Fatal("say_hi greeting text is required")
	}
	if err := salaryBandError(cfg.ExpectedSalary); err != nil {
		log.Fatal(err)
	}
	if cfg.LedgerBackend != "file" && cfg.LedgerBackend != "postgres" {
		log.Fatalf("unknown ledger_backend %q", cfg.LedgerBackend)
	}
	if cfg.LedgerBackend == "postgres" && cfg.PostgresURL == "" {
		log.Fatal("POSTGRES_URL is required for the postgres ledger backend")
	}
	if cfg.EnableAI && cfg.AIAPIKey == "" {
		log.Fatal("AI_API_KEY is required when enable_ai is set")
	}
	if cfg.SendImgResume && cfg.ResumeImagePath == "" {
		log.Fatal("resume_image_path is required when send_img_resume is set")
	}
}

// salaryBandError rejects malformed expected_salary lists. An inverted
// band would silently exclude nearly every posting.
func salaryBandError(vals []int) error {
	if len(vals) > 2 {
		return errors.New("expected_salary takes at most [min, max]")
	}
	if len(vals) == 2 && vals[0] > vals[1] {
		return fmt.Errorf("expected_salary min %d exceeds max %d", vals[0], vals[1])
	}
	return nil
}
