package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"fintrack/internal/core"

	"gopkg.in/yaml.v3"
)

// CardSeed is the YAML layout of a cards seed file:
//
//	cards:
//	  - name: Nubank
//	    closing_day: 3
//	    due_day: 10
type CardSeed struct {
	Cards []struct {
		Name       string `yaml:"name"`
		ClosingDay int    `yaml:"closing_day"`
		DueDay     int    `yaml:"due_day"`
	} `yaml:"cards"`
}

// LoadCardSeed reads and validates a cards seed file.
func LoadCardSeed(path string) ([]core.Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read card seed: %w", err)
	}
	return ParseCardSeed(data)
}

// ParseCardSeed decodes and validates seed YAML.
func ParseCardSeed(data []byte) ([]core.Card, error) {
	var seed CardSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse card seed: %w", err)
	}

	cards := make([]core.Card, 0, len(seed.Cards))
	seen := make(map[string]struct{}, len(seed.Cards))
	for i, c := range seed.Cards {
		card := core.Card{
			Name:       core.NormalizeDescription(c.Name),
			ClosingDay: c.ClosingDay,
			DueDay:     c.DueDay,
		}
		if err := card.Validate(); err != nil {
			return nil, fmt.Errorf("card seed entry %d: %w", i+1, err)
		}
		if _, dup := seen[card.Name]; dup {
			return nil, fmt.Errorf("card seed entry %d: %q listed twice", i+1, card.Name)
		}
		seen[card.Name] = struct{}{}
		cards = append(cards, card)
	}
	return cards, nil
}

// SeedCards upserts the given cards by name.
func (r *SQLiteRepository) SeedCards(ctx context.Context, cards []core.Card) error {
	for _, c := range cards {
		if _, err := r.UpsertCardByName(ctx, c); err != nil {
			return err
		}
	}
	slog.InfoContext(ctx, "Cards seeded", "count", len(cards))
	return nil
}
