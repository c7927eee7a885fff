package events

import (
	"fmt"
	"strings"
	"time"

	"showbook/internal/shared/apperrors"
)

type EventType string

const (
	TypeWeekday      EventType = "weekday"
	TypeWeekend      EventType = "weekend"
	TypeMatinee      EventType = "matinee"
	TypeCareHeroes   EventType = "care_heroes"
	TypeSpecialEvent EventType = "special_event"
)

var eventTypes = []EventType{TypeWeekday, TypeWeekend, TypeMatinee, TypeCareHeroes, TypeSpecialEvent}

func (t EventType) IsValid() bool {
	for _, known := range eventTypes {
		if t == known {
			return true
		}
	}
	return false
}

func ParseEventType(value string) (EventType, error) {
	t := EventType(strings.ToLower(strings.TrimSpace(value)))
	if !t.IsValid() {
		return "", fmt.Errorf("%q: %w", value, apperrors.ErrUnknownEventType)
	}
	return t, nil
}

// TypeMigrationVersion identifies the legacy mapping below. Bump it whenever
// an entry is added or changed.
const TypeMigrationVersion = 1

type legacyRule func(date time.Time) EventType

func fixed(t EventType) legacyRule {
	return func(time.Time) EventType { return t }
}

// Regular shows on Friday and Saturday are priced and sold as weekend shows
func byWeekday(date time.Time) EventType {
	switch date.Weekday() {
	case time.Friday, time.Saturday:
		return TypeWeekend
	default:
		return TypeWeekday
	}
}

// legacyTypes maps every stored value the old schema produced. REQUEST and
// UNAVAILABLE have no counterpart and are left for an operator to resolve.
var legacyTypes = map[string]legacyRule{
	"REGULAR":       byWeekday,
	"regular":       byWeekday,
	"MATINEE":       fixed(TypeMatinee),
	"zondag":        fixed(TypeMatinee),
	"CARE_HEROES":   fixed(TypeCareHeroes),
	"SPECIAL":       fixed(TypeSpecialEvent),
	"special-event": fixed(TypeSpecialEvent),
}

// MigrateType returns the current type for a stored value. ok is false when
// the value is neither current nor listed in the migration table.
func MigrateType(value string, date time.Time) (EventType, bool) {
	if t := EventType(value); t.IsValid() {
		return t, true
	}
	rule, found := legacyTypes[value]
	if !found {
		return "", false
	}
	return rule(date), true
}
