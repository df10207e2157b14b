package deadlines

import (
	"fmt"
	"time"
)

// Level buckets how close a deadline is.
type Level string

const (
	LevelPassed    Level = "passed"
	LevelToday     Level = "today"
	LevelSoon      Level = "soon"
	LevelUpcoming  Level = "upcoming"
	LevelScheduled Level = "scheduled"
)

// Urgency is the display classification of a deadline relative to today.
type Urgency struct {
	Level Level  `json:"level"`
	Days  int    `json:"days"`
	Label string `json:"label"`
}

// Classify buckets deadline against today by calendar days: negative is
// passed, zero is today, up to 7 is soon, up to 30 is upcoming and anything
// later is shown as an absolute date.
func Classify(deadline, today time.Time) Urgency {
	days := DaysBetween(today, deadline)
	switch {
	case days < 0:
		return Urgency{Level: LevelPassed, Days: days, Label: "Passed"}
	case days == 0:
		return Urgency{Level: LevelToday, Days: 0, Label: "Due today"}
	case days <= 7:
		return Urgency{Level: LevelSoon, Days: days, Label: dayLabel(days)}
	case days <= 30:
		return Urgency{Level: LevelUpcoming, Days: days, Label: dayLabel(days)}
	default:
		return Urgency{Level: LevelScheduled, Days: days, Label: Day(deadline).Format(labelLayout)}
	}
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

func dayLabel(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
