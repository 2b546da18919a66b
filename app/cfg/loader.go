package cfg

import (
	"cmp"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	Mode string `long:"mode" env:"MODE" default:"harvest" choice:"harvest" choice:"serve" description:"Harvest posts from the chat or serve the archive preview"`

	// Harvest configuration
	Chat       string `long:"chat" env:"CHAT_NAME" description:"Title of the chat to archive (required for harvest)"`
	Count      int    `long:"count" short:"n" env:"POST_COUNT" default:"10" description:"Number of posts to archive"`
	BaseDir    string `long:"base-dir" env:"BASE_DIR" default:"." description:"Site directory; posts go to <base-dir>/assets/actualites"`
	ProfileDir string `long:"profile-dir" env:"PROFILE_DIR" default:"./whatsapp_profile" description:"Browser profile directory holding the logged-in session"`
	UIProfile  string `long:"ui-profile" env:"UI_PROFILE" description:"YAML file overriding the built-in selectors and lexicon"`
	Now        string `long:"now" env:"NOW" description:"Reference instant for relative dates (RFC3339 or YYYY-MM-DD, default: current time)"`
	Headless   bool   `long:"headless" env:"HEADLESS" description:"Run the browser without a window"`
	UserAgent  string `long:"user-agent" env:"USER_AGENT" default:"Actualites/1.0" description:"User agent string for remote image requests"`

	// Waits
	FetchTimeout   time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30s" description:"Timeout for remote image requests"`
	LoginTimeout   time.Duration `long:"login-timeout" env:"LOGIN_TIMEOUT" default:"60s" description:"How long to wait for the chat list to appear"`
	ViewerTimeout  time.Duration `long:"viewer-timeout" env:"VIEWER_TIMEOUT" default:"5s" description:"How long to wait for the media viewer to open"`
	CloseTimeout   time.Duration `long:"close-timeout" env:"CLOSE_TIMEOUT" default:"2s" description:"How long to wait for the media viewer to close"`
	QueryTimeout   time.Duration `long:"query-timeout" env:"QUERY_TIMEOUT" default:"10s" description:"Timeout for a single page query or script call"`
	PollInterval   time.Duration `long:"poll-interval" env:"POLL_INTERVAL" default:"200ms" description:"Interval between checks while waiting on the page"`
	AdvanceTimeout time.Duration `long:"advance-timeout" env:"ADVANCE_TIMEOUT" default:"10s" description:"How long to wait for the viewer to show the next image"`
	ExpandTimeout  time.Duration `long:"expand-timeout" env:"EXPAND_TIMEOUT" default:"2s" description:"How long to wait for a truncated message to expand"`
	SettleDelay    time.Duration `long:"settle-delay" env:"SETTLE_DELAY" default:"150ms" description:"Pause after expanding a message"`

	// Journal and preview server
	DBPath       string `long:"db-path" env:"DB_PATH" default:"./data/journal.db" description:"SQLite journal of harvest runs (empty to disable)"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://champcarillon.example.com)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	Timezone string `long:"timezone" env:"TZ" default:"Europe/Paris" description:"Timezone for dates (e.g., UTC, Europe/Paris)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses the command line and environment. It returns nil, nil when
// help was requested.
func Load() (*Cfg, error) {
	return Parse(os.Args[1:])
}

func Parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	loc, err := time.LoadLocation(raw.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", raw.Timezone, err)
	}

	now, err := parseNow(raw.Now, loc)
	if err != nil {
		return nil, err
	}

	cfg := &Cfg{
		Mode:           raw.Mode,
		Chat:           strings.TrimSpace(raw.Chat),
		Count:          raw.Count,
		BaseDir:        raw.BaseDir,
		ProfileDir:     raw.ProfileDir,
		UIProfile:      raw.UIProfile,
		Now:            now,
		Headless:       raw.Headless,
		UserAgent:      raw.UserAgent,
		FetchTimeout:   raw.FetchTimeout,
		LoginTimeout:   raw.LoginTimeout,
		ViewerTimeout:  raw.ViewerTimeout,
		CloseTimeout:   raw.CloseTimeout,
		QueryTimeout:   raw.QueryTimeout,
		PollInterval:   raw.PollInterval,
		AdvanceTimeout: raw.AdvanceTimeout,
		ExpandTimeout:  raw.ExpandTimeout,
		SettleDelay:    raw.SettleDelay,
		DBPath:         raw.DBPath,
		Port:           raw.Port,
		BaseUrl:        strings.TrimRight(raw.BaseUrl, "/"),
		APIAccessKey:   raw.APIAccessKey,
		Timezone:       raw.Timezone,
		Location:       loc,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseNow(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Now().In(loc), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --now %q: expected RFC3339 or YYYY-MM-DD", value)
}

func validate(cfg *Cfg) error {
	if cfg.Mode == ModeHarvest {
		if cfg.Chat == "" {
			return fmt.Errorf("--chat is required in harvest mode")
		}
		if cfg.Count < 0 {
			return fmt.Errorf("--count must not be negative, got %d", cfg.Count)
		}
	}

	durations := map[string]time.Duration{
		"poll-interval":   cfg.PollInterval,
		"advance-timeout": cfg.AdvanceTimeout,
		"viewer-timeout":  cfg.ViewerTimeout,
		"close-timeout":   cfg.CloseTimeout,
		"expand-timeout":  cfg.ExpandTimeout,
		"fetch-timeout":   cfg.FetchTimeout,
		"login-timeout":   cfg.LoginTimeout,
		"query-timeout":   cfg.QueryTimeout,
		"settle-delay":    cfg.SettleDelay,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("--%s must be positive, got %s", name, d)
		}
	}
	return nil
}
