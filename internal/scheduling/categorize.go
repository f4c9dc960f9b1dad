package scheduling

import "time"

// DefaultUpcomingWindowDays is how far ahead an item still counts as
// "upcoming" rather than "future".
const DefaultUpcomingWindowDays = 30

// CategorizedItem is a schedule item annotated with its day offset from the
// reference date. DaysOverdue is set for overdue items, DaysUntil for
// upcoming and future ones.
type CategorizedItem struct {
	Item
	DaysOverdue int
	DaysUntil   int
}

// Categorized buckets a schedule relative to a reference date.
type Categorized struct {
	Overdue  []CategorizedItem
	Upcoming []CategorizedItem
	Future   []CategorizedItem
}

// Total returns the number of items across all buckets.
func (c Categorized) Total() int {
	return len(c.Overdue) + len(c.Upcoming) + len(c.Future)
}

// Categorize partitions schedule items into overdue, upcoming and future
// buckets. windowDays bounds the upcoming bucket; zero or negative selects
// DefaultUpcomingWindowDays. Input order is preserved within each bucket.
func Categorize(items []Item, referenceDate time.Time, windowDays int) Categorized {
	if windowDays <= 0 {
		windowDays = DefaultUpcomingWindowDays
	}
	ref := dateOnly(referenceDate)

	var out Categorized
	for _, item := range items {
		diff := daysBetween(ref, dateOnly(item.Date))
		switch {
		case diff < 0:
			out.Overdue = append(out.Overdue, CategorizedItem{Item: item, DaysOverdue: -diff})
		case diff <= windowDays:
			out.Upcoming = append(out.Upcoming, CategorizedItem{Item: item, DaysUntil: diff})
		default:
			out.Future = append(out.Future, CategorizedItem{Item: item, DaysUntil: diff})
		}
	}
	return out
}
