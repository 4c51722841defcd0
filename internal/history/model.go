package history

import "time"

// ScannedRoot is one root directory that has been imported at least once.
type ScannedRoot struct {
	Path           string    `json:"path"`
	FirstScannedAt time.Time `json:"first_scanned_at"`
	LastScannedAt  time.Time `json:"last_scanned_at"`
	TrackCount     int       `json:"track_count"`
}
