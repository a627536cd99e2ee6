package model

import "strings"

// LifecycleStatus is the resolved lifecycle state of an alpha token.
type LifecycleStatus string

const (
	// StatusUnknown is the zero value, used for missing or unrecognised labels.
	StatusUnknown LifecycleStatus = ""
	// StatusAlpha is tradable on the upstream venue only.
	StatusAlpha LifecycleStatus = "ALPHA"
	// StatusSpot is now tradable on the primary spot market.
	StatusSpot LifecycleStatus = "SPOT"
	// StatusPreDelisted is offline and awaiting a limit-volume check.
	StatusPreDelisted LifecycleStatus = "PRE_DELISTED"
	// StatusDelisted is terminal. Once published it is never left.
	StatusDelisted LifecycleStatus = "DELISTED"
)

// ParseStatus maps a persisted label to a LifecycleStatus.
func ParseStatus(label string) (LifecycleStatus, bool) {
	switch LifecycleStatus(strings.ToUpper(strings.TrimSpace(label))) {
	case StatusAlpha:
		return StatusAlpha, true
	case StatusSpot:
		return StatusSpot, true
	case StatusPreDelisted:
		return StatusPreDelisted, true
	case StatusDelisted:
		return StatusDelisted, true
	default:
		return StatusUnknown, false
	}
}

// UnmarshalText decodes a status label; unknown labels become StatusUnknown.
func (s *LifecycleStatus) UnmarshalText(text []byte) error {
	*s, _ = ParseStatus(string(text))
	return nil
}

// Terminal reports whether the status can never change again.
func (s LifecycleStatus) Terminal() bool {
	return s == StatusDelisted
}

func (s LifecycleStatus) String() string {
	if s == StatusUnknown {
		return "UNKNOWN"
	}
	return string(s)
}
