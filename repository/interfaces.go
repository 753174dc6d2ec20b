package repository

import (
	"github.com/Tonisark/ActressManager/models"
)

// ImportRunRepository defines the methods for import audit records
type ImportRunRepository interface {
	Create(run *models.ImportRun) error
	GetByID(id uint) (*models.ImportRun, error)
	ListRecent(limit int) ([]models.ImportRun, error)
}

// BackupRepository defines the methods for backup records
type BackupRepository interface {
	Create(backup *models.Backup) error
	GetByFilename(filename string) (*models.Backup, error)
	ListAll() ([]models.Backup, error)
	Delete(id uint) error
}

// AdminRepository defines the methods for admin account operations
type AdminRepository interface {
	Create(admin *models.Admin) error
	GetByID(id uint) (*models.Admin, error)
	GetByUsername(username string) (*models.Admin, error)
	Update(admin *models.Admin) error
	Count() (int64, error)
}
