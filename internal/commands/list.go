package commands

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klabast/wb-services/partyplaner/internal/app"
	"github.com/mattn/go-runewidth"
)

// List handles the list subcommand: prints the persisted parties as a table
func List(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("PARTYPLANER_CONFIG"), "Path to YAML config file")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: partyplaner list [OPTIONS]\n\n")
		fmt.Fprintf(os.Stderr, "Prints the locally stored parties without contacting the remote document.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	parties, err := loadParties(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	RenderTable(os.Stdout, parties)
}

func loadParties(cfg *app.Config) ([]app.Party, error) {
	persister, closeFn, err := app.OpenPersister(cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	data, err := persister.Load(app.StorageKey)
	if errors.Is(err, app.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var parties []app.Party
	if err := json.Unmarshal(data, &parties); err != nil {
		return nil, fmt.Errorf("stored parties are not valid JSON: %w", err)
	}
	return parties, nil
}

// RenderTable writes parties as an aligned text table.
// Column widths count display cells, so umlauts and emoji line up.
func RenderTable(w io.Writer, parties []app.Party) {
	if len(parties) == 0 {
		fmt.Fprintln(w, "Keine Partys geplant.")
		return
	}

	header := []string{"#", "Datum", "Beschreibung", "Ort"}
	rows := make([][]string, 0, len(parties))
	for i, p := range parties {
		rows = append(rows, []string{fmt.Sprint(i), p.Date, p.Description, p.Location})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	writeRow(w, header, widths)
	sep := make([]string, len(widths))
	for i, cw := range widths {
		sep[i] = strings.Repeat("-", cw)
	}
	writeRow(w, sep, widths)
	for _, row := range rows {
		writeRow(w, row, widths)
	}
}

func writeRow(w io.Writer, cells []string, widths []int) {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = runewidth.FillRight(cell, widths[i])
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(padded, "  "), " "))
}
