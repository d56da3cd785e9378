package racing

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arvindsc/entain-assessment/core/sanitizer"
)

// Category identifiers used by the upstream API.
var (
	CategoryGreyhound = uuid.MustParse("9daef0d7-bf3c-4f50-921d-8e818c60fe61")
	CategoryHarness   = uuid.MustParse("161d9be2-e909-4326-8c2c-35ed71fb460b")
	CategoryHorse     = uuid.MustParse("4a2788f8-e825-4d36-9894-efd4baf1cfae")
)

var categoryNames = map[string]uuid.UUID{
	"greyhound": CategoryGreyhound,
	"harness":   CategoryHarness,
	"horse":     CategoryHorse,
}

// ParseCategory resolves a caller-supplied category value: either a
// well-known name (greyhound, harness, horse, case-insensitive) or a raw
// category UUID.
func ParseCategory(s string) (uuid.UUID, error) {
	normalized := sanitizer.TrimToLower(s)
	if id, ok := categoryNames[normalized]; ok {
		return id, nil
	}
	id, err := uuid.Parse(normalized)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return id, nil
}

// Race is a single upcoming race as reported by the upstream API.
type Race struct {
	ID              uuid.UUID `json:"race_id" validate:"required"`
	Name            string    `json:"race_name" validate:"required"`
	Number          int       `json:"race_number" validate:"gt=0"`
	MeetingID       uuid.UUID `json:"meeting_id" validate:"required"`
	MeetingName     string    `json:"meeting_name" validate:"required"`
	CategoryID      uuid.UUID `json:"category_id" validate:"required"`
	AdvertisedStart time.Time `json:"advertised_start" validate:"required"`
}

// CountdownTo returns the time remaining until the advertised start, negative
// once the race has started.
func (r Race) CountdownTo(now time.Time) time.Duration {
	return r.AdvertisedStart.Sub(now)
}

// StartedBefore reports whether the race's advertised start is more than
// grace in the past.
func (r Race) StartedBefore(now time.Time, grace time.Duration) bool {
	return now.Sub(r.AdvertisedStart) > grace
}
