package jobs

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"time"

	"gorm.io/gorm"
)

// ImageProvider produces image bytes for a text prompt.
type ImageProvider interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

type Worker struct {
	ID       string
	Repo     *Repo
	DB       *gorm.DB
	Provider ImageProvider
}

type cardRow struct {
	ID               string `gorm:"column:id"`
	Kind             string `gorm:"column:kind"`
	Front            string `gorm:"column:front"`
	Text             string `gorm:"column:text"`
	ImageDescription string `gorm:"column:image_description"`
}

func (cardRow) TableName() string { return "cards" }

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(800 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.Repo.Claim(w.ID)
			if err != nil {
				log.Printf("worker claim error: %v\n", err)
				continue
			}
			if job == nil {
				continue
			}
			w.handle(ctx, job)
		}
	}
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	switch job.Type {
	case TypeImageGenerate:
		w.handleImageGenerate(ctx, job)
	default:
		_ = w.Repo.MarkFailed(job.ID, "unknown job type")
	}
}

func (w *Worker) handleImageGenerate(ctx context.Context, job *Job) {
	type payload struct {
		CardID   string `json:"card_id"`
		Position string `json:"position"`
	}
	var p payload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		_ = w.Repo.MarkFailed(job.ID, "bad payload")
		return
	}

	var row cardRow
	if err := w.DB.Where("id=?", p.CardID).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// card deleted while the job waited
			_ = w.Repo.MarkDone(job.ID)
			return
		}
		w.retry(job, "db read error")
		return
	}

	img, err := w.Provider.GenerateImage(ctx, prompt(row))
	if err != nil {
		w.retry(job, err.Error())
		return
	}

	err = w.DB.Exec(`
update cards
set image_data=?, has_image_data=true, is_placeholder=false, updated_at=now()
where id=?`, img, row.ID).Error
	if err != nil {
		w.retry(job, "db write error")
		return
	}

	log.Printf("[IMAGE] card=%s position=%s bytes=%d\n", row.ID, p.Position, len(img))
	_ = w.Repo.MarkDone(job.ID)
}

// prompt picks the text the provider should illustrate: the curator-written
// description when present, otherwise the card's question side.
func prompt(row cardRow) string {
	if row.ImageDescription != "" {
		return row.ImageDescription
	}
	if row.Text != "" {
		return row.Text
	}
	return row.Front
}

func (w *Worker) retry(job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		_ = w.Repo.MarkFailed(job.ID, errMsg)
		return
	}

	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := time.Now().Add(time.Duration(sec) * time.Second)

	_ = w.Repo.RetryLater(job.ID, attempts, next, errMsg)
}
