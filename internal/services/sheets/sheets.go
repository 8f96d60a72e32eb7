// Package sheets looks up scripts stored in a Google Sheet.
//
// The sheet has a header row with an "ID" column and a "대본" (script)
// column; every following row is one script.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"mp4creator/internal/services"
)

const (
	idHeader     = "ID"
	scriptHeader = "대본"
)

// Row is one script entry.
type Row struct {
	ID     string
	Script string
}

// Reader reads one sheet of one spreadsheet.
type Reader struct {
	service       *sheetsv4.Service
	spreadsheetID string
	sheetName     string
}

// New authenticates with the service account key at keyPath.
func New(ctx context.Context, keyPath, spreadsheetID, sheetName string, extra ...option.ClientOption) (*Reader, error) {
	opts, err := googleauthOptions(ctx, keyPath, extra...)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, spreadsheetID, sheetName, opts...)
}

// NewWithOptions builds a reader from ready client options.
func NewWithOptions(ctx context.Context, spreadsheetID, sheetName string, opts ...option.ClientOption) (*Reader, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "script", "sheets", "spreadsheet_id is not set", nil)
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Sheet1"
	}
	svc, err := sheetsv4.NewService(ctx, opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "script", "sheets", "create service", err)
	}
	return &Reader{service: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// Rows returns every script row. Short rows are padded so missing cells
// read as empty strings.
func (r *Reader) Rows(ctx context.Context) ([]Row, error) {
	readRange := fmt.Sprintf("'%s'!A1:Z", strings.ReplaceAll(r.sheetName, "'", "''"))
	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "script", "sheets", "read values", err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	idCol, scriptCol := 0, 1
	for i, cell := range resp.Values[0] {
		switch strings.TrimSpace(fmt.Sprint(cell)) {
		case idHeader:
			idCol = i
		case scriptHeader:
			scriptCol = i
		}
	}

	rows := make([]Row, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		row := Row{ID: cellAt(raw, idCol), Script: cellAt(raw, scriptCol)}
		if row.ID == "" && row.Script == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Script returns the script for id, or an ErrNotFound-marked error.
func (r *Reader) Script(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	rows, err := r.Rows(ctx)
	if err != nil {
		return "", err
	}
	for _, row := range rows {
		if row.ID == id {
			if strings.TrimSpace(row.Script) == "" {
				return "", services.Wrap(services.ErrValidation, "script", "sheets", fmt.Sprintf("row %s has an empty script", id), nil)
			}
			return row.Script, nil
		}
	}
	return "", services.Wrap(services.ErrNotFound, "script", "sheets", fmt.Sprintf("no row with ID %q", id), nil)
}

func cellAt(row []any, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[col]))
}
