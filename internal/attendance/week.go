package attendance

import "time"

// StartOfWeek returns the Monday of the week containing t, truncated to
// midnight. Sunday belongs to the week that started six days earlier.
func StartOfWeek(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := int(t.Weekday()) - int(time.Monday)
	if t.Weekday() == time.Sunday {
		offset = 6
	}
	return t.AddDate(0, 0, -offset)
}

// WeekDates returns the seven ISO dates of the week starting at monday
func WeekDates(monday time.Time) []string {
	dates := make([]string, 7)
	for i := 0; i < 7; i++ {
		dates[i] = monday.AddDate(0, 0, i).Format("2006-01-02")
	}
	return dates
}
