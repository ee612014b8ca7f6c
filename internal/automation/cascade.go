package automation

import (
	"fmt"

	"signal-desk/internal/database"
)

// ToggleKey identifies a user-togglable automation switch
type ToggleKey string

const (
	KeyMasterEnabled        ToggleKey = "master_enabled"
	KeyDarkPoolScanner      ToggleKey = "dark_pool_scanner"
	KeyUnusualOptionsSweeps ToggleKey = "unusual_options_sweeps"
	KeyAutoThreadPosting    ToggleKey = "auto_thread_posting"
)

// ToggleKeys lists the valid keys in display order
var ToggleKeys = []ToggleKey{
	KeyMasterEnabled,
	KeyDarkPoolScanner,
	KeyUnusualOptionsSweeps,
	KeyAutoThreadPosting,
}

// IsValidToggleKey reports whether key names a togglable switch.
// analytics_tracking is always on and cannot be toggled.
func IsValidToggleKey(key ToggleKey) bool {
	switch key {
	case KeyMasterEnabled, KeyDarkPoolScanner, KeyUnusualOptionsSweeps, KeyAutoThreadPosting:
		return true
	}
	return false
}

// Cascade applies a single toggle change and returns the resulting state.
// The input is not modified.
//
// Flipping a dependent key changes that key alone. Turning the master off
// forces every dependent off. Turning the master on re-enables the two
// scanner toggles but leaves auto_thread_posting at its stored value, so a
// kill switch never silently resumes posting.
func Cascade(state database.AutomationToggles, key ToggleKey, value bool) (database.AutomationToggles, error) {
	next := state

	switch key {
	case KeyDarkPoolScanner:
		next.DarkPoolScanner = value
	case KeyUnusualOptionsSweeps:
		next.UnusualOptionsSweeps = value
	case KeyAutoThreadPosting:
		next.AutoThreadPosting = value
	case KeyMasterEnabled:
		next.MasterEnabled = value
		if value {
			next.DarkPoolScanner = true
			next.UnusualOptionsSweeps = true
		} else {
			next.DarkPoolScanner = false
			next.UnusualOptionsSweeps = false
			next.AutoThreadPosting = false
		}
	default:
		return state, fmt.Errorf("unknown toggle key: %s", key)
	}

	return next, nil
}

// EffectiveState returns what the automations actually do right now: a
// dependent toggle is active only while the master is on. Analytics
// tracking is unconditional.
type EffectiveState struct {
	DarkPoolScanner      bool `json:"dark_pool_scanner"`
	UnusualOptionsSweeps bool `json:"unusual_options_sweeps"`
	AutoThreadPosting    bool `json:"auto_thread_posting"`
	AnalyticsTracking    bool `json:"analytics_tracking"`
}

// Effective computes the effective automation state from stored toggles
func Effective(state database.AutomationToggles) EffectiveState {
	return EffectiveState{
		DarkPoolScanner:      state.MasterEnabled && state.DarkPoolScanner,
		UnusualOptionsSweeps: state.MasterEnabled && state.UnusualOptionsSweeps,
		AutoThreadPosting:    state.MasterEnabled && state.AutoThreadPosting,
		AnalyticsTracking:    state.AnalyticsTracking,
	}
}
