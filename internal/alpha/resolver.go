// Package alpha reconciles upstream alpha tokens into published records and
// builds their per-minute volume tails.
package alpha

import "alphaScope/internal/model"

// ResolveStatus decides the tentative status of entry from its upstream flags,
// primary market membership and the previously published status. The second
// result reports whether the status still hinges on a limit-volume check.
func ResolveStatus(entry model.RawTokenEntry, prior model.LifecycleStatus, spotListed bool) (model.LifecycleStatus, bool) {
	if prior.Terminal() {
		return model.StatusDelisted, false
	}
	if !entry.Offline {
		return model.StatusAlpha, false
	}
	if bool(entry.ListingCex) || spotListed {
		return model.StatusSpot, false
	}
	return model.StatusPreDelisted, true
}

// NeedsFetch reports whether a token with the given rolling volume and status
// gets a fresh daily volume fetch.
func NeedsFetch(rolling24h float64, status model.LifecycleStatus) bool {
	if rolling24h <= 0 {
		return false
	}
	switch status {
	case model.StatusAlpha, model.StatusPreDelisted:
		return true
	default:
		return false
	}
}

// ResolveLimitCheck settles a pending limit check. Limit-path trading proves the
// token is alive; no limit volume means it is gone.
func ResolveLimitCheck(dailyLimit float64) model.LifecycleStatus {
	if dailyLimit > 0 {
		return model.StatusAlpha
	}
	return model.StatusDelisted
}
