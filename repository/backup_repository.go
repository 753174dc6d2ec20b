package repository

import (
	"github.com/Tonisark/ActressManager/models"
	"gorm.io/gorm"
)

type GormBackupRepository struct {
	db *gorm.DB
}

func NewGormBackupRepository(db *gorm.DB) BackupRepository {
	return &GormBackupRepository{db: db}
}

func (r *GormBackupRepository) Create(backup *models.Backup) error {
	return r.db.Create(backup).Error
}

func (r *GormBackupRepository) GetByFilename(filename string) (*models.Backup, error) {
	var backup models.Backup
	err := r.db.Where("filename = ?", filename).First(&backup).Error
	if err != nil {
		return nil, err
	}
	return &backup, nil
}

func (r *GormBackupRepository) ListAll() ([]models.Backup, error) {
	var backups []models.Backup
	err := r.db.Order("created_at DESC").Order("id DESC").Find(&backups).Error
	return backups, err
}

func (r *GormBackupRepository) Delete(id uint) error {
	return r.db.Delete(&models.Backup{}, id).Error
}
