package testutils

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	categorydb "github.com/tnt-tag-history/tnt-history/app/modules/category/infrastructure/repositories"
	eventservice "github.com/tnt-tag-history/tnt-history/app/modules/event/application"
	playerservice "github.com/tnt-tag-history/tnt-history/app/modules/player/application"
)

// TestDataGenerator produces reproducible fixtures from a seed.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a generator. Without a seed the current time is used.
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	s := time.Now().UnixNano()
	if len(seed) > 0 {
		s = seed[0]
	}
	return &TestDataGenerator{faker: gofakeit.New(uint64(s)), seed: s}
}

// Seed returns the seed, for reproducing a failing run.
func (g *TestDataGenerator) Seed() int64 {
	return g.seed
}

// IGN returns a Minecraft-style name: 3-16 characters of letters, digits and underscores.
func (g *TestDataGenerator) IGN() string {
	name := g.faker.Username()
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return -1
	}, name)
	for len(name) < 3 {
		name += "_"
	}
	if len(name) > 16 {
		name = name[:16]
	}
	return name
}

// PlayerInput returns input for a new player with a fixed id, so tests can mention it.
func (g *TestDataGenerator) PlayerInput(id string) playerservice.PlayerInput {
	return playerservice.PlayerInput{
		ID:         id,
		CurrentIGN: g.IGN(),
		Role:       "player",
	}
}

// Mention formats the inline token the indexer looks for.
func Mention(name, playerID string) string {
	return fmt.Sprintf("<%s:%s>", name, playerID)
}

// EventInput returns a valid event whose description mentions the given players.
func (g *TestDataGenerator) EventInput(category string, mentioned ...string) eventservice.EventInput {
	var b strings.Builder
	b.WriteString(g.faker.Sentence(8))
	for _, id := range mentioned {
		b.WriteString(" ")
		b.WriteString(Mention(g.IGN(), id))
	}
	date := g.faker.DateRange(
		time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	)
	return eventservice.EventInput{
		Title:       g.faker.Sentence(3),
		Date:        date.Format("2006-01-02"),
		Category:    category,
		Description: b.String(),
		Tags:        []string{g.faker.Word()},
	}
}

// Category returns a category row with a random hex color.
func (g *TestDataGenerator) Category(name string) *categorydb.Category {
	return &categorydb.Category{
		Name:      name,
		Label:     strings.ToUpper(name[:1]) + name[1:],
		Color:     g.faker.HexColor(),
		SortOrder: g.faker.IntRange(0, 20),
	}
}
