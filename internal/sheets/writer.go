package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Veraticus/panel-keeper/internal/common"
	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/Veraticus/panel-keeper/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var _ service.ReportWriter = (*Writer)(nil)

// tabOrder fixes the order tabs are created and written in.
var tabOrder = []string{TabSummary, TabReplacements, TabCategories, TabSubCategories}

// Writer implements the ReportWriter interface for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Writer{
		config:  config,
		service: service,
		logger:  logger,
	}, nil
}

// Write exports a run's summary, replacement audit, and comparison tabs.
func (w *Writer) Write(ctx context.Context, result *model.RunResult) error {
	if result == nil {
		return fmt.Errorf("nothing to export: %w", common.ErrNotFound)
	}

	w.logger.Info("starting run export",
		"run", result.ID,
		"period", result.Period,
		"replacements", len(result.Replacements))

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	var spreadsheetID string
	var sheetIDs map[string]int64
	err := common.WithRetry(ctx, func() error {
		var err error
		spreadsheetID, sheetIDs, err = w.getOrCreateSpreadsheet(ctx)
		return err
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	tabs := BuildTabData(result).Values()
	for _, tab := range tabOrder {
		values := tabs[tab]
		err = common.WithRetry(ctx, func() error {
			if clearErr := w.clearTab(ctx, spreadsheetID, tab); clearErr != nil {
				return clearErr
			}
			return w.writeTab(ctx, spreadsheetID, tab, values)
		}, retryOpts)
		if err != nil {
			return fmt.Errorf("failed to write %s tab: %w", tab, err)
		}
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID, sheetIDs)
		}, retryOpts)
		if err != nil {
			// Formatting failures leave the data in place.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("run export completed",
		"spreadsheet_id", spreadsheetID,
		"run", result.ID)

	return nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = oauthConfig(config.ClientID, config.ClientSecret, "").TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet returns the spreadsheet ID and the sheet ID of every
// export tab, adding tabs that are missing.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, map[string]int64, error) {
	if w.config.SpreadsheetID == "" {
		spreadsheet := &sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{
				Title:    w.config.SpreadsheetName,
				TimeZone: w.config.TimeZone,
			},
		}
		for _, tab := range tabOrder {
			spreadsheet.Sheets = append(spreadsheet.Sheets, &sheets.Sheet{
				Properties: &sheets.SheetProperties{Title: tab},
			})
		}

		created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
		if err != nil {
			return "", nil, fmt.Errorf("unable to create spreadsheet: %w", err)
		}

		w.logger.Info("created new spreadsheet",
			"id", created.SpreadsheetId,
			"url", created.SpreadsheetUrl)

		// Later runs in this process reuse the spreadsheet.
		w.config.SpreadsheetID = created.SpreadsheetId
		return created.SpreadsheetId, sheetIDsOf(created), nil
	}

	existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
	}

	ids := sheetIDsOf(existing)
	var requests []*sheets.Request
	for _, tab := range missingTabs(ids) {
		requests = append(requests, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: tab},
			},
		})
	}
	if len(requests) == 0 {
		return existing.SpreadsheetId, ids, nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(existing.SpreadsheetId, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to add tabs: %w", err)
	}
	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			ids[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
		}
	}
	return existing.SpreadsheetId, ids, nil
}

func sheetIDsOf(s *sheets.Spreadsheet) map[string]int64 {
	ids := make(map[string]int64, len(s.Sheets))
	for _, sh := range s.Sheets {
		if sh.Properties != nil {
			ids[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	return ids
}

func missingTabs(ids map[string]int64) []string {
	var missing []string
	for _, tab := range tabOrder {
		if _, ok := ids[tab]; !ok {
			missing = append(missing, tab)
		}
	}
	return missing
}

// clearTab clears all data from one tab.
func (w *Writer) clearTab(ctx context.Context, spreadsheetID, tab string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, tabRange(tab, "A:Z"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// writeTab writes rows to a tab in batches to stay under API limits.
func (w *Writer) writeTab(ctx context.Context, spreadsheetID, tab string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := values[i:end]

		valueRange := &sheets.ValueRange{Values: batch}
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, tabRange(tab, fmt.Sprintf("A%d", i+1)), valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "tab", tab, "start_row", i+1, "rows", len(batch))
	}
	return nil
}

func tabRange(tab, cells string) string {
	return fmt.Sprintf("'%s'!%s", tab, cells)
}

// formattingRequests bolds and freezes header rows, formats value columns,
// and resizes every export tab.
func formattingRequests(sheetIDs map[string]int64) []*sheets.Request {
	var requests []*sheets.Request
	for _, tab := range tabOrder {
		id, ok := sheetIDs[tab]
		if !ok {
			continue
		}

		requests = append(requests,
			&sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{SheetId: id, StartRowIndex: 0, EndRowIndex: 1},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							TextFormat: &sheets.TextFormat{Bold: true},
						},
					},
					Fields: "userEnteredFormat.textFormat",
				},
			},
			&sheets.Request{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId:        id,
						GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
			&sheets.Request{
				AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
					Dimensions: &sheets.DimensionRange{
						SheetId:    id,
						Dimension:  "COLUMNS",
						StartIndex: 0,
						EndIndex:   int64(comparisonColumns),
					},
				},
			},
		)

		if tab == TabCategories || tab == TabSubCategories {
			requests = append(requests, &sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:          id,
						StartRowIndex:    1,
						StartColumnIndex: 5,
						EndColumnIndex:   int64(comparisonColumns),
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							NumberFormat: &sheets.NumberFormat{
								Type:    "NUMBER",
								Pattern: "#,##0.00",
							},
						},
					},
					Fields: "userEnteredFormat.numberFormat",
				},
			})
		}
	}
	return requests
}

// applyFormatting applies formatting to the export tabs.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetIDs map[string]int64) error {
	requests := formattingRequests(sheetIDs)
	if len(requests) == 0 {
		return nil
	}
	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}
