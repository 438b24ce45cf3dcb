package app

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the day-resolution format used for party dates
const DateLayout = "2006-01-02"

// Party represents a single party event
type Party struct {
	ID          string `json:"id,omitempty" xml:"id,omitempty"`
	Date        string `json:"date" xml:"date"`
	Description string `json:"description" xml:"description"`
	Location    string `json:"location" xml:"location"`
}

// NewParty creates a party with a fresh identifier
func NewParty(date, description, location string) Party {
	return Party{
		ID:          uuid.NewString(),
		Date:        date,
		Description: description,
		Location:    location,
	}
}

// ParseDate parses a party date in the given location.
// Plain days are interpreted as midnight; RFC 3339 timestamps are accepted too.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(DateLayout, value, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// contentNamespace scopes identifiers derived from a party's content
var contentNamespace = uuid.MustParse("6f1c2a3e-7b0d-4c55-9a57-2f4b8d0e9c11")

// ensureIDs gives parties without an identifier one derived from their content,
// so the same list yields the same IDs on every load. Repeated records are
// numbered by occurrence to keep their IDs distinct.
func ensureIDs(parties []Party) {
	seen := make(map[string]int)
	for i := range parties {
		p := &parties[i]
		if p.ID != "" {
			continue
		}
		name := p.Date + "\x00" + p.Description + "\x00" + p.Location
		n := seen[name]
		seen[name] = n + 1
		if n > 0 {
			name += "\x00" + strconv.Itoa(n)
		}
		p.ID = uuid.NewSHA1(contentNamespace, []byte(name)).String()
	}
}
