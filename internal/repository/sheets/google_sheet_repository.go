package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/prodtrack/internal/config"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

// DailyReportRange is the tab daily report rows are appended to.
const DailyReportRange = "DailyReports!A:E"

// Repository exports daily reports to a spreadsheet.
type Repository interface {
	AppendDailyReport(ctx context.Context, report *models.DailyReport) error
}

// GoogleSheetRepository implements Repository using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
// Extra client options are appended after the credentials file option.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if cfg.CredentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendDailyReport appends one row per shift and a total row.
func (r *GoogleSheetRepository) AppendDailyReport(ctx context.Context, report *models.DailyReport) error {
	return r.appendRows(ctx, DailyReportRange, DailyReportRows(report))
}

func (r *GoogleSheetRepository) appendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}
	if len(rows) == 0 {
		return nil
	}

	payload := &sheetsapi.ValueRange{Values: rows}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append rows into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("rows appended to sheet", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return nil
}

// DailyReportRows lays a report out as day, shift, entries, pieces and weight
// columns.
func DailyReportRows(report *models.DailyReport) [][]interface{} {
	rows := make([][]interface{}, 0, len(report.Shifts)+1)
	for _, st := range report.Shifts {
		rows = append(rows, []interface{}{report.Date, string(st.Shift), st.TotalProductions, st.TotalPieces, st.TotalWeight})
	}
	t := report.Totals
	rows = append(rows, []interface{}{report.Date, "total", t.TotalProductions, t.TotalPieces, t.TotalWeight})
	return rows
}
