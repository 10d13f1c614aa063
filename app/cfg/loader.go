package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./alchemy.db" description:"SQLite database path"`

	// Curation model configuration
	GroqAPIKey   string `long:"groq-api-key" env:"GROQ_API_KEY" description:"Groq API key (required for curation)"`
	GroqEndpoint string `long:"groq-endpoint" env:"GROQ_ENDPOINT" default:"https://api.groq.com/openai/v1/chat/completions" description:"OpenAI-compatible chat completions endpoint"`
	GroqModel    string `long:"groq-model" env:"GROQ_MODEL" default:"llama-3.3-70b-versatile" description:"Model used for all curation stages"`
	ModelTimeout int    `long:"model-timeout" env:"MODEL_TIMEOUT" default:"60" description:"Per-stage model call timeout in seconds"`

	// Collector configuration
	NewsAPIKey   string `long:"news-api-key" env:"NEWS_API_KEY" description:"NewsAPI key (optional, Google News RSS is used as fallback)"`
	FetchWorkers int    `long:"fetch-workers" env:"FETCH_WORKERS" default:"5" description:"Number of concurrent source fetch workers"`
	FetchHours   int    `long:"fetch-hours" env:"FETCH_HOURS" default:"48" description:"How far back to collect articles, in hours"`

	// Delivery configuration
	SlackBotToken     string `long:"slack-bot-token" env:"SLACK_BOT_TOKEN" description:"Slack bot token"`
	SlackSigningToken string `long:"slack-signing-token" env:"SLACK_SIGNING_TOKEN" description:"Shared token checked on inbound Slack events"`
	ChannelDaily      string `long:"channel-daily" env:"SLACK_CHANNEL_DAILY" default:"1_daily_briefing" description:"Channel for the daily briefing"`
	ChannelWeekend    string `long:"channel-weekend" env:"SLACK_CHANNEL_WEEKEND" default:"2_weekend_read" description:"Channel for the weekend deep dive"`
	ChannelReport     string `long:"channel-report" env:"SLACK_CHANNEL_REPORT" default:"3_report" description:"Channel for the weekly report"`

	// Archive configuration
	NotionAPIKey string `long:"notion-api-key" env:"NOTION_API_KEY" description:"Notion integration token"`
	NotionDBID   string `long:"notion-db-id" env:"NOTION_DB_ID" description:"Notion vault database ID"`

	// Curation policy
	DedupWindowDays     int `long:"dedup-window-days" env:"DEDUP_WINDOW_DAYS" default:"7" description:"Days within which previously recommended URLs are suppressed"`
	ExclusionThreshold  int `long:"exclusion-threshold" env:"EXCLUSION_THRESHOLD" default:"3" description:"Dismiss count at which an axis or source is excluded"`
	DailyNewsCount      int `long:"daily-news-count" env:"DAILY_NEWS_COUNT" default:"5" description:"News headlines per daily briefing"`
	DailyArticleCount   int `long:"daily-article-count" env:"DAILY_ARTICLE_COUNT" default:"3" description:"Deep reads per daily briefing"`
	WeekendArticleCount int `long:"weekend-article-count" env:"WEEKEND_ARTICLE_COUNT" default:"3" description:"Deep reads per weekend dive"`

	// Server configuration
	Port         string `long:"port" env:"PORT" default:"3000" description:"HTTP server port (server command)"`
	TickInterval int    `long:"tick-interval" env:"TICK_INTERVAL" default:"30" description:"Scheduler tick interval in seconds"`
	ConfigDir    string `long:"config-dir" env:"CONFIG_DIR" default:"./config" description:"Directory containing axes.yml, sources.yml, profile.yml"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Seoul)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses process configuration from flags and environment. The
// remaining positional arguments (the subcommand) are returned to the
// caller.
func Load(args []string) (*Cfg, []string, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	rest, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil, nil
			}
		}
		return nil, nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:              raw.DBPath,
		GroqAPIKey:          raw.GroqAPIKey,
		GroqEndpoint:        raw.GroqEndpoint,
		GroqModel:           raw.GroqModel,
		ModelTimeout:        raw.ModelTimeout,
		NewsAPIKey:          raw.NewsAPIKey,
		FetchWorkers:        raw.FetchWorkers,
		FetchHours:          raw.FetchHours,
		SlackBotToken:       raw.SlackBotToken,
		SlackSigningToken:   raw.SlackSigningToken,
		ChannelDaily:        raw.ChannelDaily,
		ChannelWeekend:      raw.ChannelWeekend,
		ChannelReport:       raw.ChannelReport,
		NotionAPIKey:        raw.NotionAPIKey,
		NotionDBID:          raw.NotionDBID,
		DedupWindowDays:     raw.DedupWindowDays,
		ExclusionThreshold:  raw.ExclusionThreshold,
		DailyNewsCount:      raw.DailyNewsCount,
		DailyArticleCount:   raw.DailyArticleCount,
		WeekendArticleCount: raw.WeekendArticleCount,
		Port:                raw.Port,
		TickInterval:        raw.TickInterval,
		ConfigDir:           raw.ConfigDir,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, rest, nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
