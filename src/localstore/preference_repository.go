package localstore

import (
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceRepository persists per-operator view settings across restarts.
type PreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository() *PreferenceRepository {
	return &PreferenceRepository{db: DB}
}

func (r *PreferenceRepository) WithDB(db *gorm.DB) *PreferenceRepository {
	r.db = db
	return r
}

func (r *PreferenceRepository) Set(key, value string) error {
	pref := Preference{Key: key, Value: value}
	return r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&pref).Error
}

// Get returns the stored value or fallback when the key is absent.
func (r *PreferenceRepository) Get(key, fallback string) (string, error) {
	var pref Preference
	err := r.db.Where("key = ?", key).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	return pref.Value, nil
}

// GetInt is Get for numeric settings such as the log page size.
func (r *PreferenceRepository) GetInt(key string, fallback int) (int, error) {
	raw, err := r.Get(key, strconv.Itoa(fallback))
	if err != nil {
		return fallback, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, nil
	}
	return n, nil
}
