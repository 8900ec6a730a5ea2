package perf

import "time"

// ControllerConfig tunes the adaptive quality controller.
type ControllerConfig struct {
	Interval          time.Duration `yaml:"interval"`
	LowRatio          float64       `yaml:"low_ratio"`
	HighRatio         float64       `yaml:"high_ratio"`
	LowChecks         int           `yaml:"low_checks"`
	DowngradeCooldown time.Duration `yaml:"downgrade_cooldown"`
	UpgradeCooldown   time.Duration `yaml:"upgrade_cooldown"`

	// Hysteresis widens the threshold for reversing the last action, as a
	// fraction of it. Zero keeps hard cutoffs.
	Hysteresis float64 `yaml:"hysteresis"`
}

// DefaultControllerConfig checks every 2s: three checks below 80% of target
// downgrade, one check above 95% upgrades.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Interval:          2 * time.Second,
		LowRatio:          0.8,
		HighRatio:         0.95,
		LowChecks:         3,
		DowngradeCooldown: 10 * time.Second,
		UpgradeCooldown:   15 * time.Second,
	}
}

// Action is the controller's decision for one check.
type Action int

const (
	Hold Action = iota
	Downgrade
	Upgrade
)

func (a Action) String() string {
	switch a {
	case Downgrade:
		return "downgrade"
	case Upgrade:
		return "upgrade"
	default:
		return "hold"
	}
}

// ControllerState is everything the controller carries between checks.
type ControllerState struct {
	Tier           Tier
	Cooldown       time.Duration
	ConsecutiveLow int
	LastAction     Action
}

// Step evaluates one check with the average fps since the previous check
// against target. It has no side effects.
//
// While a cooldown is pending the check only counts it down. Downgrades and
// upgrades move exactly one tier and are clamped at Potato and Ultra; a
// clamped move is reported as Hold and starts no cooldown.
func Step(cfg ControllerConfig, s ControllerState, fps, target float64) (ControllerState, Action) {
	if s.Cooldown > 0 {
		s.Cooldown = max(s.Cooldown-cfg.Interval, 0)
		return s, Hold
	}

	low := target * cfg.LowRatio
	high := target * cfg.HighRatio
	switch s.LastAction {
	case Downgrade:
		high *= 1 + cfg.Hysteresis
	case Upgrade:
		low *= 1 - cfg.Hysteresis
	}

	switch {
	case fps < low:
		s.ConsecutiveLow++
		if s.ConsecutiveLow < cfg.LowChecks {
			return s, Hold
		}
		s.ConsecutiveLow = 0
		if s.Tier == Potato {
			return s, Hold
		}
		s.Tier = s.Tier.Lower()
		s.Cooldown = cfg.DowngradeCooldown
		s.LastAction = Downgrade
		return s, Downgrade

	case fps > high:
		s.ConsecutiveLow = 0
		if s.Tier == Ultra {
			return s, Hold
		}
		s.Tier = s.Tier.Higher()
		s.Cooldown = cfg.UpgradeCooldown
		s.LastAction = Upgrade
		return s, Upgrade

	default:
		s.ConsecutiveLow = 0
		return s, Hold
	}
}
