package models

// EntitySummary is the display information for an album.
type EntitySummary struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	ImageRef          string `json:"image_ref"`
	PrimaryArtistName string `json:"primary_artist_name"`
}
