package domain

import "slices"

// DefaultRotationSeconds is the page rotation interval used when the user has
// not chosen one.
const DefaultRotationSeconds = 10

var allowedRotationSeconds = []int{3, 5, 7, 10, 15, 20, 30}

// AllowedRotationSeconds returns the rotation intervals a user may pick.
func AllowedRotationSeconds() []int {
	return slices.Clone(allowedRotationSeconds)
}

// ValidRotationInterval reports whether seconds is one of the allowed choices.
func ValidRotationInterval(seconds int) bool {
	return slices.Contains(allowedRotationSeconds, seconds)
}

// PresentationPreferences are the per-user display settings.
type PresentationPreferences struct {
	UserID          string
	AreaFilters     []string
	RotationSeconds int
}

// DefaultPreferences returns the settings of a user who never saved any.
func DefaultPreferences(userID string) PresentationPreferences {
	return PresentationPreferences{
		UserID:          userID,
		RotationSeconds: DefaultRotationSeconds,
	}
}
