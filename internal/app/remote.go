package app

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// RemoteSource provides the read-only document the party list is synced from
type RemoteSource interface {
	Fetch(ctx context.Context) ([]Party, error)
}

// Remote document formats
const (
	FormatJSON = "json"
	FormatXML  = "xml"
)

// NewRemoteSource returns a source for location in the given format.
// An empty location yields nil: there is nothing to sync from.
func NewRemoteSource(location, format string, loc *time.Location) (RemoteSource, error) {
	if location == "" {
		return nil, nil
	}
	doc := document{location: location, client: &http.Client{Timeout: 30 * time.Second}, loc: loc}
	switch format {
	case "", FormatJSON:
		return &JSONSource{doc}, nil
	case FormatXML:
		return &XMLSource{doc}, nil
	default:
		return nil, fmt.Errorf("unsupported remote format %q", format)
	}
}

// document reads raw bytes from an http(s) URL or a local file
type document struct {
	location string
	client   *http.Client
	loc      *time.Location
}

// IsFile reports whether the document lives on the local filesystem
func (d document) IsFile() bool {
	return !strings.HasPrefix(d.location, "http://") && !strings.HasPrefix(d.location, "https://")
}

// Location returns where the document is read from
func (d document) Location() string {
	return d.location
}

// LocalPath returns the filesystem path of a file-based location
func LocalPath(location string) string {
	return strings.TrimPrefix(location, "file://")
}

func (d document) read(ctx context.Context) ([]byte, error) {
	if d.IsFile() {
		data, err := os.ReadFile(LocalPath(d.location))
		if err != nil {
			return nil, &NetworkError{Source: d.location, Err: err}
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.location, nil)
	if err != nil {
		return nil, &NetworkError{Source: d.location, Err: err}
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Source: d.location, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Source: d.location, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Source: d.location, Err: err}
	}
	return data, nil
}

// normalize validates dates and assigns content-derived identifiers,
// so the same remote record keeps its ID across fetches
func (d document) normalize(parties []Party) ([]Party, error) {
	for i, p := range parties {
		if _, err := ParseDate(p.Date, d.loc); err != nil {
			return nil, &ParseError{Source: d.location, Err: fmt.Errorf("record %d: invalid date %q", i, p.Date)}
		}
	}
	ensureIDs(parties)
	return parties, nil
}

// JSONSource reads a JSON array of {date, description, location} records
type JSONSource struct {
	document
}

// Fetch downloads and decodes the document
func (s *JSONSource) Fetch(ctx context.Context) ([]Party, error) {
	data, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	var parties []Party
	if err := json.Unmarshal(data, &parties); err != nil {
		return nil, &ParseError{Source: s.location, Err: err}
	}
	return s.normalize(parties)
}

// XMLSource reads <parties><party><date/><description/><location/></party></parties>
type XMLSource struct {
	document
}

type xmlParties struct {
	XMLName xml.Name `xml:"parties"`
	Parties []Party  `xml:"party"`
}

// Fetch downloads and decodes the document
func (s *XMLSource) Fetch(ctx context.Context) ([]Party, error) {
	data, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	var doc xmlParties
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Source: s.location, Err: err}
	}
	return s.normalize(doc.Parties)
}
