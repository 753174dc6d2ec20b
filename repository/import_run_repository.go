package repository

import (
	"github.com/Tonisark/ActressManager/models"
	"gorm.io/gorm"
)

type GormImportRunRepository struct {
	db *gorm.DB
}

func NewGormImportRunRepository(db *gorm.DB) ImportRunRepository {
	return &GormImportRunRepository{db: db}
}

func (r *GormImportRunRepository) Create(run *models.ImportRun) error {
	return r.db.Create(run).Error
}

func (r *GormImportRunRepository) GetByID(id uint) (*models.ImportRun, error) {
	var run models.ImportRun
	err := r.db.First(&run, id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRecent returns the newest runs first. limit <= 0 returns all.
func (r *GormImportRunRepository) ListRecent(limit int) ([]models.ImportRun, error) {
	var runs []models.ImportRun
	q := r.db.Order("started_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&runs).Error
	return runs, err
}
