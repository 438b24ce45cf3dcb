package app

import (
	"time"
)

// holidaysNRW returns the public holidays in NRW for the given year, keyed by YYYY-MM-DD
func holidaysNRW(year int) map[string]string {
	holidays := map[string]string{
		dayKey(year, 1, 1):   "Neujahr",
		dayKey(year, 5, 1):   "Tag der Arbeit",
		dayKey(year, 10, 3):  "Tag der Deutschen Einheit",
		dayKey(year, 11, 1):  "Allerheiligen",
		dayKey(year, 12, 25): "1. Weihnachtstag",
		dayKey(year, 12, 26): "2. Weihnachtstag",
	}

	easter := easterSunday(year)
	movable := []struct {
		offset int
		name   string
	}{
		{-2, "Karfreitag"},
		{1, "Ostermontag"},
		{39, "Christi Himmelfahrt"},
		{50, "Pfingstmontag"},
		{60, "Fronleichnam"},
	}
	for _, h := range movable {
		holidays[easter.AddDate(0, 0, h.offset).Format(DateLayout)] = h.name
	}

	return holidays
}

// HolidayName returns the NRW public holiday falling on t, if any
func HolidayName(t time.Time) string {
	return holidaysNRW(t.Year())[t.Format(DateLayout)]
}

// easterSunday uses the Meeus/Jones/Butcher algorithm
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	// Noon keeps the calendar day stable in any zone
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
}

func dayKey(year, month, day int) string {
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC).Format(DateLayout)
}
