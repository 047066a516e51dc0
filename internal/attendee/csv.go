package attendee

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/io/local"
)

// Source column names. Matching is case-insensitive.
const (
	ColFirstName    = "First Name"
	ColLastName     = "Last Name"
	ColEmail        = "Email"
	ColOrganization = "Organization"
)

// ReadCSV reads attendee rows from r, builds Items, and dedupes them by email.
func ReadCSV(r io.Reader) ([]Item, error) {
	rows, err := local.ReadColumnsCSV(r, ColFirstName, ColLastName, ColEmail, ColOrganization)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, New(Row{
			FirstName:    row[ColFirstName],
			LastName:     row[ColLastName],
			Email:        row[ColEmail],
			Organization: row[ColOrganization],
		}))
	}
	return Dedupe(items), nil
}

// FileSource loads attendees from a local CSV file.
type FileSource struct {
	Path string
}

var _ core.InputAdapter[Item] = FileSource{}

func (s FileSource) Load(_ context.Context) ([]Item, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	items, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read attendees %s: %w", s.Path, err)
	}
	return items, nil
}
