package services

import (
	"time"

	"hostel-pg/models"
)

// Calendar answers "what day is it" for the hostel, in its own timezone.
type Calendar struct {
	Now      func() time.Time
	Location *time.Location
}

func (c Calendar) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Calendar) Today() models.Date {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return models.DateOf(c.now().In(loc))
}

// Range is an inclusive span of days.
type Range struct {
	From models.Date `json:"from"`
	To   models.Date `json:"to"`
}

// MonthRange fills a missing bound with the first or last day of the month
// that today falls in.
func (c Calendar) MonthRange(from, to models.Date) (Range, error) {
	today := c.Today()
	if from.IsZero() {
		from = today.StartOfMonth()
	}
	if to.IsZero() {
		to = today.EndOfMonth()
	}
	if to.Before(from) {
		return Range{}, invalid("to", "end of range is before its start")
	}
	if from.DaysUntil(to) > 366 {
		return Range{}, invalid("to", "range may span at most one year")
	}
	return Range{From: from, To: to}, nil
}

// Days lists every day in the range, both ends included.
func (r Range) Days() []models.Date {
	n := r.From.DaysUntil(r.To) + 1
	days := make([]models.Date, 0, n)
	for d := r.From; !d.After(r.To); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}
