package jobs

import "time"

// TypeImageGenerate asks the worker to produce an image for one card side.
// Payload: {"card_id": "...", "position": "front"|"back"}.
const TypeImageGenerate = "IMAGE_GENERATE"

type Job struct {
	ID uint64 `gorm:"primaryKey"`

	Type    string `gorm:"type:text;not null"`
	Payload []byte `gorm:"type:jsonb;not null;default:'{}'::jsonb"`

	RunAt  time.Time `gorm:"index;not null"`
	Status string    `gorm:"index;not null;default:'PENDING'"` // PENDING/RUNNING/DONE/FAILED/CANCELLED

	Attempts    int `gorm:"not null;default:0"`
	MaxAttempts int `gorm:"not null;default:8"`

	LockedBy *string    `gorm:"type:text"`
	LockedAt *time.Time `gorm:"type:timestamptz"`

	LastError *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}
