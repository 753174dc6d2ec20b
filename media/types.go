// media/types.go
package media

// Metadata struct
// Contains EXIF and dimension information
type Metadata struct {
	Width        *int     `json:"width,omitempty"`
	Height       *int     `json:"height,omitempty"`
	Aperture     *float64 `json:"aperture,omitempty"`
	ShutterSpeed *string  `json:"shutter_speed,omitempty"`
	ISO          *int     `json:"iso,omitempty"`
	FocalLength  *float64 `json:"focal_length,omitempty"`
	CameraMake   *string  `json:"camera_make,omitempty"`
	CameraModel  *string  `json:"camera_model,omitempty"`
	TakenAt      *int64   `json:"taken_at,omitempty"`
}

// GalleryImage is one picture in a profile's media folder.
type GalleryImage struct {
	Filename string    `json:"filename"`
	URL      string    `json:"url"` // relative to the /media mount
	Size     int64     `json:"size"`
	Metadata *Metadata `json:"metadata,omitempty"`
}
