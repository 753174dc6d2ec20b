package models

// ImportRun records the outcome of one import batch.
// It corresponds to the 'import_runs' table.
type ImportRun struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Source     string `gorm:"not null" json:"source"` // "csv" or "json"
	Filename   string `gorm:"" json:"filename,omitempty"`
	Mode       string `gorm:"not null" json:"mode"`
	Upserted   int    `gorm:"not null" json:"upserted"`
	Skipped    int    `gorm:"not null" json:"skipped"`
	Failed     int    `gorm:"not null" json:"failed"`
	StartedAt  int64  `gorm:"not null;index" json:"started_at"` // Unix timestamp
	FinishedAt int64  `gorm:"not null" json:"finished_at"`      // Unix timestamp
}

// TableName explicitly sets the table name for GORM.
func (ImportRun) TableName() string {
	return "import_runs"
}
