// Package prefs is a small key/value preference store; the review session
// uses it to remember the last destination deck between sessions.
package prefs

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const keyLastDeck = "last_deck"

type Preference struct {
	Key       string    `gorm:"primaryKey;type:text"`
	Value     string    `gorm:"type:text;not null;default:''"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Preference) TableName() string { return "preferences" }

// Store implements review.DeckPrefs over gorm.
type Store struct {
	DB *gorm.DB
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var p Preference
	if err := s.DB.WithContext(ctx).Where("key = ?", key).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return p.Value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	p := Preference{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&p).Error
}

func (s *Store) LastDeck(ctx context.Context) (string, error) {
	return s.Get(ctx, keyLastDeck)
}

func (s *Store) SetLastDeck(ctx context.Context, name string) error {
	return s.Set(ctx, keyLastDeck, name)
}
