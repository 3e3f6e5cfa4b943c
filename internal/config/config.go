package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPageURL     = "https://www.nepalstock.com/today-price"
	defaultDownloadDir = "todays_price"
	defaultFileLabel   = "Today's Price"
	defaultDateLayout  = "2006-01-02"

	// NEPSE is closed Friday and Saturday. Go weekday numbering
	// (Sunday=0), so the default differs from the Python-era "{4, 5}".
	defaultWeekendDays = "5,6"
)

type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

// Config is the immutable run configuration, read from the environment
// once at startup and passed into each component's constructor.
type Config struct {
	PageURL     string
	DownloadDir string
	FileLabel   string
	DateLayout  string
	WeekendDays map[time.Weekday]bool

	Timeout      time.Duration // download completion bound
	SelectorWait time.Duration // per-candidate clickable wait
	PageSettle   time.Duration // post-navigate render delay
	ClickSettle  time.Duration // post-scroll delay before the click
	PollInterval time.Duration // download directory poll period
	SweepGrace   time.Duration // orphaned-process sweep bound

	Headless bool
	Telegram TelegramConfig
}

func Load() (*Config, error) {
	weekend, err := parseWeekendDays(envString("WEEKEND_DAYS", defaultWeekendDays))
	if err != nil {
		return nil, err
	}

	chatID, err := envInt64("TELEGRAM_CHAT_ID", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		PageURL:     envString("NEPSE_URL", defaultPageURL),
		DownloadDir: envString("DOWNLOAD_DIR", defaultDownloadDir),
		FileLabel:   envString("FILE_LABEL", defaultFileLabel),
		DateLayout:  envString("DATE_LAYOUT", defaultDateLayout),
		WeekendDays: weekend,
		Headless:    envBool("HEADLESS", false),
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:   chatID,
		},
	}

	for _, d := range []struct {
		dst *time.Duration
		key string
		def time.Duration
	}{
		{&cfg.Timeout, "TIMEOUT", 60 * time.Second},
		{&cfg.SelectorWait, "SELECTOR_WAIT", 30 * time.Second},
		{&cfg.PageSettle, "PAGE_SETTLE", 5 * time.Second},
		{&cfg.ClickSettle, "CLICK_SETTLE", 2 * time.Second},
		{&cfg.PollInterval, "POLL_INTERVAL", time.Second},
		{&cfg.SweepGrace, "SWEEP_GRACE", 3 * time.Second},
	} {
		v, err := envDuration(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.PageURL) == "" {
		return errors.New("config: NEPSE_URL is required")
	}
	if strings.TrimSpace(c.DownloadDir) == "" {
		return errors.New("config: DOWNLOAD_DIR is required")
	}
	if strings.TrimSpace(c.FileLabel) == "" {
		return errors.New("config: FILE_LABEL is required")
	}
	if c.Timeout <= 0 {
		return errors.New("config: TIMEOUT must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.New("config: POLL_INTERVAL must be positive")
	}
	if c.PollInterval > c.Timeout {
		return errors.New("config: POLL_INTERVAL cannot exceed TIMEOUT")
	}
	if len(c.WeekendDays) >= 7 {
		return errors.New("config: WEEKEND_DAYS cannot close every weekday")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		return errors.New("config: TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	return nil
}

func parseWeekendDays(raw string) (map[time.Weekday]bool, error) {
	days := make(map[time.Weekday]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("config: WEEKEND_DAYS entry %q must be 0-6 (Sunday=0)", part)
		}
		days[time.Weekday(n)] = true
	}
	return days, nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) (int64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: cannot parse %q as integer", key, v)
	}
	return n, nil
}

// envDuration accepts Go duration strings ("90s", "2m") and, for
// compatibility with the historical bare-seconds convention, plain
// integers ("60").
func envDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return 0, fmt.Errorf("config: %s: cannot parse %q as duration", key, v)
}
