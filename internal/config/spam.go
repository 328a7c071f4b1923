package config

import "time"

// Spam configures periodic reapplication of spam-enabled groups.
type Spam struct {
	UseSmartReapply              bool    `yaml:"use_smart_reapply"`
	ReapplyThresholdSeconds      float64 `yaml:"reapply_threshold_seconds"`
	CheckIntervalSeconds         float64 `yaml:"check_interval_seconds"`
	SkipIfUnitHasPendingCommands bool    `yaml:"skip_if_unit_has_pending_commands"`
}

// DefaultSpam returns the spam defaults: smart reapply below 6s, checked every second.
func DefaultSpam() Spam {
	return Spam{
		UseSmartReapply:              true,
		ReapplyThresholdSeconds:      6,
		CheckIntervalSeconds:         1,
		SkipIfUnitHasPendingCommands: true,
	}
}

// ReapplyThreshold returns the threshold as a duration.
func (s Spam) ReapplyThreshold() time.Duration {
	return seconds(s.ReapplyThresholdSeconds)
}

// CheckInterval returns the spam polling interval as a duration.
func (s Spam) CheckInterval() time.Duration {
	return seconds(s.CheckIntervalSeconds)
}

func seconds(v float64) time.Duration {
	if v <= 0 {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}
