package store

import (
	"time"

	"github.com/lib/pq"
)

// CardRecord is the persisted form of a card. Variant-specific fields are
// flattened into nullable columns; the Kind column says which ones apply.
type CardRecord struct {
	ID     string `gorm:"primaryKey;type:text"`
	Status string `gorm:"index;not null;default:'PENDING'"`
	Kind   string `gorm:"not null;default:'basic'"`

	Front string `gorm:"type:text;not null;default:''"`
	Back  string `gorm:"type:text;not null;default:''"`
	Text  string `gorm:"type:text;not null;default:''"`
	Extra string `gorm:"type:text;not null;default:''"`

	Tags    pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	Remarks string         `gorm:"type:text;not null;default:''"`

	HasImageData     bool   `gorm:"not null;default:false"`
	IsPlaceholder    bool   `gorm:"not null;default:false"`
	ImageData        []byte `gorm:"type:bytea"`
	ImageDescription string `gorm:"type:text;not null;default:''"`

	CreatedAt time.Time `gorm:"index;not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (CardRecord) TableName() string { return "cards" }
