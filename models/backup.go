package models

// Backup records an archive written to the backup directory.
// It corresponds to the 'backups' table.
type Backup struct {
	ID            uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename      string  `gorm:"not null;uniqueIndex" json:"filename"`
	SizeBytes     int64   `gorm:"not null" json:"size_bytes"`
	ProfileCount  int     `gorm:"not null" json:"profile_count"`
	Automated     bool    `gorm:"not null" json:"automated"`
	IncludesMedia bool    `gorm:"not null" json:"includes_media"`
	Error         *string `gorm:"" json:"error,omitempty"` // Nullable
	CreatedAt     int64   `gorm:"not null;index" json:"created_at"` // Unix timestamp
}

// TableName explicitly sets the table name for GORM.
func (Backup) TableName() string {
	return "backups"
}
