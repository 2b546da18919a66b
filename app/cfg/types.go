package cfg

import (
	"path/filepath"
	"time"
)

const (
	ModeHarvest = "harvest"
	ModeServe   = "serve"
)

type Cfg struct {
	Mode string

	// Harvest
	Chat         string
	Count        int
	BaseDir      string
	ProfileDir   string
	UIProfile    string
	Now          time.Time
	Headless     bool
	UserAgent    string
	FetchTimeout time.Duration

	// Browser waits
	LoginTimeout   time.Duration
	ViewerTimeout  time.Duration
	CloseTimeout   time.Duration
	QueryTimeout   time.Duration
	PollInterval   time.Duration
	AdvanceTimeout time.Duration
	ExpandTimeout  time.Duration
	SettleDelay    time.Duration

	// Journal and preview server
	DBPath       string
	Port         string
	BaseUrl      string
	APIAccessKey string

	Timezone string
	Location *time.Location
	Debug    bool
	Version  string
}

// ArchiveDir is where entry directories are created.
func (c *Cfg) ArchiveDir() string {
	return filepath.Join(c.BaseDir, "assets", "actualites")
}
