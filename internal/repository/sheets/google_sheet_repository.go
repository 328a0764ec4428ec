package sheets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/farmdash/internal/config"
	"github.com/mamadbah2/farmdash/internal/domain/models"
)

// ErrSubscribeUnsupported is returned by Subscribe; sheets cannot push changes.
var ErrSubscribeUnsupported = errors.New("google sheets store does not support subscriptions")

// GoogleSheetRepository exposes one tab per collection. Row 1 of every tab
// holds the field names.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// ReadAll reads the whole tab of collection. Values stay strings; the
// normalizer and typed views coerce them.
func (r *GoogleSheetRepository) ReadAll(ctx context.Context, collection, orderBy string) ([]models.Record, error) {
	sheetRange := collection + "!A:Z"
	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	records := rowsToRecords(resp.Values)
	if orderBy != "" {
		sortDescending(records, orderBy)
	}
	return records, nil
}

// Insert appends record to the tab of collection, in header order. Fields
// missing from the header are dropped.
func (r *GoogleSheetRepository) Insert(ctx context.Context, collection string, record models.Record) (string, error) {
	headerRange := collection + "!1:1"
	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read header %s: %w", headerRange, err)
	}
	if len(resp.Values) == 0 {
		return "", fmt.Errorf("sheet %s has no header row", collection)
	}

	doc := record.Clone()
	id := doc.ID()
	if id == "" {
		id = uuid.NewString()
	}
	doc["id"] = id
	if _, ok := doc["createdAt"]; !ok {
		doc["createdAt"] = time.Now().UTC().Format(time.RFC3339)
	}

	values := rowFromRecord(headers(resp.Values[0]), doc)
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, collection+"!A:Z", payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return "", fmt.Errorf("append row into %s: %w", collection, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("collection", collection), zap.String("id", id))
	return id, nil
}

// Subscribe always fails.
func (r *GoogleSheetRepository) Subscribe(ctx context.Context, collection string, fn func([]models.Record)) error {
	return ErrSubscribeUnsupported
}

func headers(row []interface{}) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.TrimSpace(fmt.Sprint(cell))
	}
	return out
}

// rowsToRecords maps data rows onto the header row. Blank rows are skipped
// and empty cells are omitted.
func rowsToRecords(rows [][]interface{}) []models.Record {
	if len(rows) == 0 {
		return nil
	}
	keys := headers(rows[0])

	records := make([]models.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := models.Record{}
		for i, cell := range row {
			if i >= len(keys) || keys[i] == "" {
				continue
			}
			value := strings.TrimSpace(fmt.Sprint(cell))
			if value == "" {
				continue
			}
			rec[keys[i]] = value
		}
		if len(rec) > 0 {
			records = append(records, rec)
		}
	}
	return records
}

func rowFromRecord(keys []string, rec models.Record) []interface{} {
	row := make([]interface{}, len(keys))
	for i, key := range keys {
		v, ok := rec[key]
		if !ok || v == nil {
			row[i] = ""
			continue
		}
		if t, ok := v.(time.Time); ok {
			row[i] = t.Format(time.RFC3339)
			continue
		}
		row[i] = v
	}
	return row
}

// sortDescending orders by the string value of key. ISO dates compare
// correctly as text; rows without the key go last.
func sortDescending(records []models.Record, key string) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].String(key), records[j].String(key)
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a > b
	})
}

// Close is a no-op; the API client holds no connection.
func (r *GoogleSheetRepository) Close(context.Context) error {
	return nil
}
