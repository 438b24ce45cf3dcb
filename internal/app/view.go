package app

import (
	"time"
)

var weekdaysDE = [...]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"}

// View describes what the presentation layer shows for a party list
type View struct {
	Rows  []Row `json:"rows"`
	Count int   `json:"count"`
}

// Row is one party as displayed. Delete controls should bind to ID;
// Index is only valid until the next change.
type Row struct {
	Index       int    `json:"index"`
	ID          string `json:"id"`
	Date        string `json:"date"`
	Weekday     string `json:"weekday,omitempty"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Past        bool   `json:"past"`
	Holiday     string `json:"holiday,omitempty"`
}

// BuildView renders parties into a View. It does not modify parties.
func BuildView(parties []Party, now time.Time, loc *time.Location) View {
	rows := make([]Row, 0, len(parties))
	for i, p := range parties {
		row := Row{
			Index:       i,
			ID:          p.ID,
			Date:        p.Date,
			Description: p.Description,
			Location:    p.Location,
		}
		if t, err := ParseDate(p.Date, loc); err == nil {
			row.Weekday = weekdaysDE[t.Weekday()]
			row.Past = !t.After(now)
			row.Holiday = HolidayName(t)
		}
		rows = append(rows, row)
	}
	return View{Rows: rows, Count: len(rows)}
}

// At returns a copy of v with Past evaluated against now
func (v View) At(now time.Time, loc *time.Location) View {
	rows := make([]Row, len(v.Rows))
	for i, row := range v.Rows {
		if t, err := ParseDate(row.Date, loc); err == nil {
			row.Past = !t.After(now)
		}
		rows[i] = row
	}
	return View{Rows: rows, Count: v.Count}
}
