package app

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/emersion/go-ical"
)

// newCalendar returns an empty VCALENDAR with the service's identity
func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ICSProductID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	return cal
}

// partyEvent converts a party into an all-day VEVENT
func partyEvent(p Party, loc *time.Location, stamp time.Time) (*ical.Event, error) {
	day, err := ParseDate(p.Date, loc)
	if err != nil {
		return nil, fmt.Errorf("party %s: %w", p.ID, err)
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, fmt.Sprintf("%s@%s", p.ID, ICSUIDDomain))
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDate(ical.PropDateTimeStart, day)
	event.Props.SetDate(ical.PropDateTimeEnd, day.AddDate(0, 0, 1))
	event.Props.SetText(ical.PropSummary, p.Description)
	if p.Location != "" {
		event.Props.SetText(ical.PropLocation, p.Location)
	}
	return event, nil
}

// writeCalendar encodes parties as a calendar; unparseable dates are skipped
func writeCalendar(w http.ResponseWriter, cal *ical.Calendar, parties []Party, loc *time.Location) {
	stamp := time.Now()
	for _, p := range parties {
		event, err := partyEvent(p, loc, stamp)
		if err != nil {
			log.Printf("Skipping party in ICS export: %v", err)
			continue
		}
		cal.Children = append(cal.Children, event.Component)
	}

	writeEncoded(w, "ICS", func(out io.Writer) error {
		return ical.NewEncoder(out).Encode(cal)
	})
}

// writeEncoded buffers the encoded body so a failed encode still yields a clean 500
func writeEncoded(w http.ResponseWriter, what string, encode func(io.Writer) error) {
	var buf bytes.Buffer
	if err := encode(&buf); err != nil {
		log.Printf("Error encoding %s: %v", what, err)
		w.Header().Del("Content-Disposition")
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Error writing %s: %v", what, err)
	}
}

// GenerateICS writes an iCalendar download of the parties
func GenerateICS(w http.ResponseWriter, parties []Party, loc *time.Location) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=partys.ics")

	cal := newCalendar()
	cal.Props.SetText("X-WR-CALNAME", "Partys")
	cal.Props.SetText("X-WR-TIMEZONE", loc.String())
	writeCalendar(w, cal, parties, loc)
}

// GenerateSubscriptionICS writes an inline iCalendar feed for calendar subscriptions
func GenerateSubscriptionICS(w http.ResponseWriter, parties []Party, loc *time.Location) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")

	cal := newCalendar()
	cal.Props.SetText(ical.PropMethod, "PUBLISH")
	cal.Props.SetText("X-WR-CALNAME", "Partys")
	cal.Props.SetText("X-WR-TIMEZONE", loc.String())
	cal.Props.SetText("X-PUBLISHED-TTL", "PT1H")
	writeCalendar(w, cal, parties, loc)
}

// GenerateCSV writes a CSV download of the parties
func GenerateCSV(w http.ResponseWriter, parties []Party) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=partys.csv")

	records := [][]string{{"Datum", "Beschreibung", "Ort"}}
	for _, p := range parties {
		records = append(records, []string{p.Date, p.Description, p.Location})
	}
	writeEncoded(w, "CSV", func(out io.Writer) error {
		return csv.NewWriter(out).WriteAll(records)
	})
}

// GenerateJSON writes a JSON download of the parties
func GenerateJSON(w http.ResponseWriter, parties []Party) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=partys.json")

	writeEncoded(w, "JSON", func(out io.Writer) error {
		return json.NewEncoder(out).Encode(map[string]interface{}{"parties": parties})
	})
}

// upcoming returns the parties that have not happened yet
func upcoming(parties []Party, now time.Time, loc *time.Location) []Party {
	var out []Party
	for _, p := range parties {
		t, err := ParseDate(p.Date, loc)
		if err == nil && !t.Before(startOfDay(now.In(loc))) {
			out = append(out, p)
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
