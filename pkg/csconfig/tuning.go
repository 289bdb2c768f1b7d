package csconfig

import (
	"errors"
	"time"
)

const defSaveInterval = 1 * time.Second

// TuningCfg overrides the follower and multilog timings. Zero values keep
// the built-in defaults.
type TuningCfg struct {
	MaxBlockSize   int           `yaml:"max_block_size"`
	TailRecheck    time.Duration `yaml:"tail_recheck"`
	NameCheck      int           `yaml:"name_check"`
	ReopenInterval time.Duration `yaml:"reopen_interval"`
	MaxFollowers   int           `yaml:"max_followers"`
	RescanInterval time.Duration `yaml:"rescan_interval"`
	// Watch uses inotify to notice new multilog files sooner.
	Watch        bool          `yaml:"watch"`
	SaveInterval time.Duration `yaml:"save_interval"`
}

func (c *TuningCfg) setDefaults() {
	if c.SaveInterval == 0 {
		c.SaveInterval = defSaveInterval
	}
}

func (c *TuningCfg) validate() []error {
	var errs []error

	if c.MaxBlockSize < 0 || c.NameCheck < 0 || c.MaxFollowers < 0 {
		errs = append(errs, errors.New("tuning: sizes and counts must be positive"))
	}

	if c.TailRecheck < 0 || c.ReopenInterval < 0 || c.RescanInterval < 0 || c.SaveInterval < 0 {
		errs = append(errs, errors.New("tuning: intervals must be positive"))
	}

	return errs
}
