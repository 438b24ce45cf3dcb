package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

// CalDAVAcknowledger mirrors created and deleted parties into a CalDAV calendar
type CalDAVAcknowledger struct {
	client       *caldav.Client
	calendarPath string
	loc          *time.Location
}

// NewCalDAVAcknowledger connects to the CalDAV server at baseURL
func NewCalDAVAcknowledger(baseURL, username, password, calendarPath string, loc *time.Location) (*CalDAVAcknowledger, error) {
	if calendarPath == "" {
		return nil, fmt.Errorf("calendar path not specified")
	}

	httpClient := webdav.HTTPClientWithBasicAuth(&http.Client{Timeout: 30 * time.Second}, username, password)
	client, err := caldav.NewClient(httpClient, baseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	if !strings.HasSuffix(calendarPath, "/") {
		calendarPath += "/"
	}
	return &CalDAVAcknowledger{client: client, calendarPath: calendarPath, loc: loc}, nil
}

// SubmitCreate PUTs the party as an all-day event
func (a *CalDAVAcknowledger) SubmitCreate(ctx context.Context, p Party) error {
	cal, err := partyCalendar(p, a.loc)
	if err != nil {
		return err
	}
	if _, err := a.client.PutCalendarObject(ctx, a.objectPath(p), cal); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// SubmitDelete removes the party's event
func (a *CalDAVAcknowledger) SubmitDelete(ctx context.Context, p Party) error {
	if err := a.client.RemoveAll(ctx, a.objectPath(p)); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (a *CalDAVAcknowledger) objectPath(p Party) string {
	return a.calendarPath + p.ID + ".ics"
}

// partyCalendar wraps a single party in its own VCALENDAR
func partyCalendar(p Party, loc *time.Location) (*ical.Calendar, error) {
	event, err := partyEvent(p, loc, time.Now())
	if err != nil {
		return nil, err
	}
	cal := newCalendar()
	cal.Children = append(cal.Children, event.Component)
	return cal, nil
}
