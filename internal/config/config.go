package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "NEWSWATCH_CONFIG"
	spreadsheetIDEnv = "NEWSWATCH_SPREADSHEET_ID"
	gcpKeyEnv        = "GCP_SERVICE_ACCOUNT_KEY"
	geminiAPIKeyEnv  = "GEMINI_API_KEY"
	geminiModelEnv   = "GEMINI_MODEL"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Sheet         SheetConfig        `yaml:"sheet"`
	Keywords      []string           `yaml:"keywords"`
	Search        SearchConfig       `yaml:"search"`
	Fetch         FetchConfig        `yaml:"fetch"`
	Gemini        GeminiConfig       `yaml:"gemini"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SheetConfig identifies the shared spreadsheet acting as the row store.
// CredentialsJSON comes exclusively from the environment.
type SheetConfig struct {
	SpreadsheetID   string `yaml:"spreadsheetId"`
	SheetName       string `yaml:"sheetName"`
	CredentialsJSON string `yaml:"-"`
}

// SearchConfig tunes the headless-browser listing scrape.
type SearchConfig struct {
	Portal       string   `yaml:"portal"`
	BaseURL      string   `yaml:"baseUrl"`
	Categories   string   `yaml:"categories"`
	UserAgent    string   `yaml:"userAgent"`
	WaitTimeout  Duration `yaml:"waitTimeout"`
	FallbackWait Duration `yaml:"fallbackWait"`
	Headless     bool     `yaml:"headless"`
}

// FetchConfig tunes the article body/comment scrape.
type FetchConfig struct {
	MaxBodyPages  int      `yaml:"maxBodyPages"`
	Timeout       Duration `yaml:"timeout"`
	RetryAttempts int      `yaml:"retryAttempts"`
	Throttle      Duration `yaml:"throttle"`
}

// GeminiConfig defines how to contact the Gemini API and which prompt files
// make up the classification instructions.
type GeminiConfig struct {
	Endpoint      string   `yaml:"endpoint"`
	Model         string   `yaml:"model"`
	APIKey        string   `yaml:"apiKey"`
	PromptDir     string   `yaml:"promptDir"`
	RoleFile      string   `yaml:"roleFile"`
	RuleFiles     []string `yaml:"ruleFiles"`
	MaxCharacters int      `yaml:"maxCharacters"`
	RetryAttempts int      `yaml:"retryAttempts"`
	Throttle      Duration `yaml:"throttle"`
}

// PipelineConfig holds the policies that vary between pipeline deployments.
type PipelineConfig struct {
	RecencyWindowDays int    `yaml:"recencyWindowDays"`
	SortDirection     string `yaml:"sortDirection"` // "asc" or "desc"
}

// RecencyWindow converts the configured day count into a duration.
func (p PipelineConfig) RecencyWindow() time.Duration {
	return time.Duration(p.RecencyWindowDays) * 24 * time.Hour
}

// NotificationConfig encapsulates outbound operator channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send run reports.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SchedulerConfig enables the optional recurring-run mode.
type SchedulerConfig struct {
	Interval Duration `yaml:"interval"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Validate rejects configurations that cannot start a run at all. Missing
// credentials or prompt files must abort before any work begins.
func (c Config) Validate() error {
	if c.Sheet.CredentialsJSON == "" {
		return fmt.Errorf("missing Google credentials (%s)", gcpKeyEnv)
	}
	if c.Sheet.SpreadsheetID == "" {
		return fmt.Errorf("missing spreadsheet id")
	}
	if c.Gemini.RoleFile == "" || len(c.Gemini.RuleFiles) == 0 {
		return fmt.Errorf("missing prompt file configuration")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(spreadsheetIDEnv); v != "" {
		c.Sheet.SpreadsheetID = v
	}
	if v := os.Getenv(gcpKeyEnv); v != "" {
		c.Sheet.CredentialsJSON = v
	}
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Sheet.SpreadsheetID != "" {
		base.Sheet.SpreadsheetID = override.Sheet.SpreadsheetID
	}
	if override.Sheet.SheetName != "" {
		base.Sheet.SheetName = override.Sheet.SheetName
	}

	if len(override.Keywords) > 0 {
		base.Keywords = override.Keywords
	}

	if override.Search.Portal != "" {
		base.Search.Portal = override.Search.Portal
	}
	if override.Search.BaseURL != "" {
		base.Search.BaseURL = override.Search.BaseURL
	}
	if override.Search.Categories != "" {
		base.Search.Categories = override.Search.Categories
	}
	if override.Search.UserAgent != "" {
		base.Search.UserAgent = override.Search.UserAgent
	}
	if override.Search.WaitTimeout > 0 {
		base.Search.WaitTimeout = override.Search.WaitTimeout
	}
	if override.Search.FallbackWait > 0 {
		base.Search.FallbackWait = override.Search.FallbackWait
	}

	if override.Fetch.MaxBodyPages > 0 {
		base.Fetch.MaxBodyPages = override.Fetch.MaxBodyPages
	}
	if override.Fetch.Timeout > 0 {
		base.Fetch.Timeout = override.Fetch.Timeout
	}
	if override.Fetch.RetryAttempts > 0 {
		base.Fetch.RetryAttempts = override.Fetch.RetryAttempts
	}
	if override.Fetch.Throttle > 0 {
		base.Fetch.Throttle = override.Fetch.Throttle
	}

	if override.Gemini.Endpoint != "" {
		base.Gemini.Endpoint = override.Gemini.Endpoint
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.PromptDir != "" {
		base.Gemini.PromptDir = override.Gemini.PromptDir
	}
	if override.Gemini.RoleFile != "" {
		base.Gemini.RoleFile = override.Gemini.RoleFile
	}
	if len(override.Gemini.RuleFiles) > 0 {
		base.Gemini.RuleFiles = override.Gemini.RuleFiles
	}
	if override.Gemini.MaxCharacters > 0 {
		base.Gemini.MaxCharacters = override.Gemini.MaxCharacters
	}
	if override.Gemini.RetryAttempts > 0 {
		base.Gemini.RetryAttempts = override.Gemini.RetryAttempts
	}
	if override.Gemini.Throttle > 0 {
		base.Gemini.Throttle = override.Gemini.Throttle
	}

	if override.Pipeline.RecencyWindowDays > 0 {
		base.Pipeline.RecencyWindowDays = override.Pipeline.RecencyWindowDays
	}
	if override.Pipeline.SortDirection != "" {
		base.Pipeline.SortDirection = override.Pipeline.SortDirection
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Sheet:   SheetConfig{SheetName: "Yahoo"},
		Search: SearchConfig{
			Portal:       "yahoo",
			BaseURL:      "https://news.yahoo.co.jp/search",
			Categories:   "domestic,world,business,it,science,life,local",
			UserAgent:    "Mozilla/5.0",
			WaitTimeout:  Duration(10 * time.Second),
			FallbackWait: Duration(5 * time.Second),
			Headless:     true,
		},
		Fetch: FetchConfig{
			MaxBodyPages:  1,
			Timeout:       Duration(20 * time.Second),
			RetryAttempts: 3,
			Throttle:      Duration(500 * time.Millisecond),
		},
		Gemini: GeminiConfig{
			Endpoint:      "https://generativelanguage.googleapis.com/v1beta",
			Model:         "gemini-2.5-flash",
			PromptDir:     "prompts",
			RoleFile:      "prompt_gemini_role.txt",
			RuleFiles:     []string{"prompt_posinega.txt", "prompt_category.txt", "prompt_score.txt"},
			MaxCharacters: 15000,
			RetryAttempts: 3,
			Throttle:      Duration(time.Second),
		},
		Pipeline: PipelineConfig{
			RecencyWindowDays: 3,
			SortDirection:     "asc",
		},
	}
}
