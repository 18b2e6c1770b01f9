package model

// TrackingStatus is the ephemeral tracking state shown by the status
// indicator. It is derived, never persisted.
type TrackingStatus int

const (
	StatusInactive TrackingStatus = iota
	StatusActive
	StatusOnLunch
)

func (s TrackingStatus) String() string {
	switch s {
	case StatusInactive:
		return "inactive"
	case StatusActive:
		return "active"
	case StatusOnLunch:
		return "on-lunch"
	default:
		return "unknown"
	}
}
