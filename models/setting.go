package models

// Setting is a single row of the key/value settings table.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SettingCheckInSequence holds the next unassigned check-in position.
// The row must exist before the event starts; a missing row is a fatal
// configuration error, not something the check-in path may create.
const SettingCheckInSequence = "checkin_sequence"
