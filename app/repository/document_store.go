package repository

import (
	"github.com/ManuelReschke/PlanPay/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documentStore reads and writes named JSON documents in system_custom_info
type documentStore struct {
	db *gorm.DB
}

// get returns the raw JSON value of a document or gorm.ErrRecordNotFound
func (s documentStore) get(name string) (string, error) {
	var doc models.SystemCustomInfo
	if err := s.db.Where("name = ?", name).First(&doc).Error; err != nil {
		return "", err
	}
	return doc.Value, nil
}

// put creates or overwrites a document
func (s documentStore) put(name, value string) error {
	doc := &models.SystemCustomInfo{Name: name, Value: value}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(doc).Error
}
