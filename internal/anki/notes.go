package anki

import (
	"encoding/base64"
	"fmt"

	"deckhand/internal/review"
)

// Note is one AnkiConnect note payload.
type Note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags,omitempty"`
	Options   NoteOptions       `json:"options"`
	Picture   []Media           `json:"picture,omitempty"`
}

type NoteOptions struct {
	AllowDuplicate bool `json:"allowDuplicate"`
}

// Media is an inline attachment stored into Anki's media collection and
// referenced from the listed fields.
type Media struct {
	Data     string   `json:"data"` // base64
	Filename string   `json:"filename"`
	Fields   []string `json:"fields"`
}

// BuildNote maps a card onto the Anki note model for its variant.
func BuildNote(deck string, c review.Card) Note {
	n := Note{
		DeckName: deck,
		Tags:     c.Tags,
	}

	switch v := c.Content.(type) {
	case review.BasicContent:
		n.ModelName = "Basic"
		n.Fields = map[string]string{"Front": v.Front, "Back": withExtra(v.Back, v.Extra)}
	case review.BasicReverseContent:
		n.ModelName = "Basic (and reversed card)"
		n.Fields = map[string]string{"Front": v.Front, "Back": withExtra(v.Back, v.Extra)}
	case review.ClozeContent:
		n.ModelName = "Cloze"
		n.Fields = map[string]string{"Text": v.Text, "Back Extra": v.Extra}
	case review.InteractiveClozeContent:
		n.ModelName = "Cloze"
		n.Fields = map[string]string{"Text": v.Text, "Back Extra": v.Extra}
	case review.OtherContent:
		n.ModelName = "Basic"
		n.Fields = map[string]string{"Front": v.Front, "Back": v.Back}
	}

	if len(c.ImageData) > 0 && !c.IsPlaceholder {
		field := "Back"
		if _, cloze := n.Fields["Text"]; cloze {
			field = "Back Extra"
		}
		n.Picture = []Media{{
			Data:     base64.StdEncoding.EncodeToString(c.ImageData),
			Filename: fmt.Sprintf("deckhand-%s.png", c.ID),
			Fields:   []string{field},
		}}
	}

	return n
}

func withExtra(back, extra string) string {
	if extra == "" {
		return back
	}
	return back + "<br><br>" + extra
}
