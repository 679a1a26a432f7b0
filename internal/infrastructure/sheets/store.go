// Package sheets persists article rows in a shared Google Sheet, which also
// doubles as the checkpoint between runs.
package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"newswatch/internal/config"
	"newswatch/internal/domain"
	"newswatch/internal/ports"
)

// Store implements ports.RowStore on top of the Sheets v4 API. All values go
// through RAW input mode so string cells round-trip without reinterpretation.
type Store struct {
	srv           *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *slog.Logger
}

var _ ports.RowStore = (*Store)(nil)

// NewStore authenticates with the service-account key and verifies the header
// row, creating it when the sheet is blank.
func NewStore(ctx context.Context, cfg config.SheetConfig, logger *slog.Logger) (*Store, error) {
	srv, err := sheets.NewService(ctx, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	s := &Store{
		srv:           srv,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		logger:        logger.With("component", "sheetstore"),
	}
	if err := s.ensureHeader(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureHeader(ctx context.Context) error {
	rng := fmt.Sprintf("%s!A1:I1", s.sheetName)
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) >= columnCount {
		return nil
	}

	_, err = s.srv.Spreadsheets.Values.Update(s.spreadsheetID, rng, &sheets.ValueRange{
		Values: [][]interface{}{headerCells},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header row: %w", err)
	}
	s.logger.Info("header row created", "sheet", s.sheetName)
	return nil
}

// ListRows reads every data row below the header.
func (s *Store) ListRows(ctx context.Context) ([]domain.Row, error) {
	rng := fmt.Sprintf("%s!A2:I", s.sheetName)
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}

	rows := make([]domain.Row, 0, len(resp.Values))
	for _, cells := range resp.Values {
		rows = append(rows, decodeRow(cells))
	}
	return rows, nil
}

// AppendRows adds new records after the last data row.
func (s *Store) AppendRows(ctx context.Context, rows []domain.Row) error {
	if len(rows) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		values = append(values, encodeRow(row))
	}

	rng := fmt.Sprintf("%s!A:I", s.sheetName)
	_, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, rng, &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append %d rows: %w", len(rows), err)
	}
	return nil
}

// UpdateDetails rewrites the mutable columns (C through I) of the addressed
// rows in one batch call. URL and title stay untouched so row identity can
// never drift during an update.
func (s *Store) UpdateDetails(ctx context.Context, updates []ports.RowUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		cells := encodeRow(u.Row)
		sheetRow := u.Index + 2 // 1-based plus header
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!C%d:I%d", s.sheetName, sheetRow, sheetRow),
			Values: [][]interface{}{cells[2:]},
		})
	}

	_, err := s.srv.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch update %d rows: %w", len(updates), err)
	}
	return nil
}

// WriteAll replaces the whole data region, used after sorting. Row count
// never shrinks across a run, so no residue from a longer previous region
// can survive.
func (s *Store) WriteAll(ctx context.Context, rows []domain.Row) error {
	if len(rows) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		values = append(values, encodeRow(row))
	}

	rng := fmt.Sprintf("%s!A2:I%d", s.sheetName, len(rows)+1)
	_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, rng, &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("rewrite %d rows: %w", len(rows), err)
	}
	return nil
}
