package track

import "time"

// Track is one imported audio file. The importer treats it as an opaque
// record: the scanner produces it, the store persists it.
type Track struct {
	ID          string    `json:"id"`
	RootPath    string    `json:"root_path"`
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Album       string    `json:"album"`
	AlbumArtist string    `json:"album_artist,omitempty"`
	Genre       string    `json:"genre,omitempty"`
	Year        int       `json:"year,omitempty"`
	TrackNum    int       `json:"track_num,omitempty"`
	TrackTotal  int       `json:"track_total,omitempty"`
	DiscNum     int       `json:"disc_num,omitempty"`
	DiscTotal   int       `json:"disc_total,omitempty"`
	Format      string    `json:"format"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
