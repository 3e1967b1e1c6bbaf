package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"jpkvat/pkg/models"
)

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-d_9/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-d_9", id)

	_, err = extractSpreadsheetID("https://example.com/not-a-sheet")
	assert.Error(t, err)
}

func TestDiagnosticRows(t *testing.T) {
	at := time.Date(2024, time.April, 5, 10, 30, 0, 0, time.UTC)
	runs := []Run{
		{
			Source: "marzec.xlsx", Period: "2024-03", TaxID: "5260250995",
			Result: &models.GenerationResult{
				Success:     true,
				DocumentID:  "doc-1",
				GeneratedAt: at,
				Errors:      []models.Diagnostic{},
				Warnings:    []models.Diagnostic{},
			},
		},
		{Source: "skipped"},
		{
			Source: "kwiecien.xlsx", Period: "2024-04", TaxID: "5260250995",
			Result: &models.GenerationResult{
				GeneratedAt: at,
				Errors: []models.Diagnostic{
					{Code: "MISSING_ROW_FIELD", Path: "SprzedazWiersz[1].DowodSprzedazy", Message: "missing", Severity: models.SeverityError},
				},
				Warnings: []models.Diagnostic{
					{Code: "CONFLICTING_MARKERS", Path: "SprzedazWiersz[2]", Message: "conflict", Severity: models.SeverityWarning},
				},
			},
		},
	}

	rows := DiagnosticRows(runs)
	require.Len(t, rows, 3)

	assert.Equal(t, []interface{}{
		"marzec.xlsx", "2024-03", "5260250995", "OK", "doc-1", "", "", "", "", "2024-04-05T10:30:00Z",
	}, rows[0])
	assert.Equal(t, "ODRZUCONO", rows[1][3])
	assert.Equal(t, "error", rows[1][5])
	assert.Equal(t, "MISSING_ROW_FIELD", rows[1][6])
	assert.Equal(t, "warning", rows[2][5])
	assert.Equal(t, "SprzedazWiersz[2]", rows[2][7])

	for _, row := range rows {
		assert.Len(t, row, len(DiagnosticHeaders))
	}
}

func TestSpans(t *testing.T) {
	assert.Equal(t, "A:J", columnSpan(len(DiagnosticHeaders)))
	assert.Equal(t, "A1:J1", headerSpan(len(DiagnosticHeaders)))
}

// fakeSheetsAPI answers the handful of Sheets v4 calls the service makes and
// records them as "METHOD path".
type fakeSheetsAPI struct {
	mu       sync.Mutex
	calls    []string
	bodies   map[string]string
	titles   []string
	header   bool
	readRows [][]interface{}
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/sheet-1")
	call := r.Method + " " + path

	f.mu.Lock()
	f.calls = append(f.calls, call)
	if f.bodies == nil {
		f.bodies = map[string]string{}
	}
	f.bodies[call] = string(body)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	var resp interface{}
	switch {
	case r.Method == http.MethodGet && path == "":
		var sheets []map[string]interface{}
		for i, title := range f.titles {
			sheets = append(sheets, map[string]interface{}{
				"properties": map[string]interface{}{"title": title, "sheetId": i + 1},
			})
		}
		resp = map[string]interface{}{"spreadsheetId": "sheet-1", "sheets": sheets}
	case r.Method == http.MethodPost && path == ":batchUpdate":
		resp = map[string]interface{}{
			"replies": []interface{}{
				map[string]interface{}{"addSheet": map[string]interface{}{"properties": map[string]interface{}{"sheetId": 42}}},
			},
		}
	case r.Method == http.MethodGet && strings.HasSuffix(path, "A1:J1"):
		values := [][]interface{}{}
		if f.header {
			values = append(values, []interface{}{"Źródło"})
		}
		resp = map[string]interface{}{"values": values}
	case r.Method == http.MethodGet:
		resp = map[string]interface{}{"values": f.readRows}
	default:
		resp = map[string]interface{}{}
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestService(t *testing.T, api *fakeSheetsAPI) *Service {
	t.Helper()

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := NewWithOptions(context.Background(), "sheet-1",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return svc
}

func TestReadRange(t *testing.T) {
	api := &fakeSheetsAPI{readRows: [][]interface{}{{"ID", "Numer"}, {"s-1", "FV/1"}}}
	svc := newTestService(t, api)

	values, err := svc.ReadRange(context.Background(), "Sprzedaz!A:P")
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "FV/1", values[1][1])
	assert.Equal(t, []string{"GET /values/Sprzedaz!A:P"}, api.calls)
}

func TestWriteDiagnosticsCreatesSheet(t *testing.T) {
	api := &fakeSheetsAPI{titles: []string{"Sprzedaz", "Zakup"}}
	svc := newTestService(t, api)

	runs := []Run{{
		Source: "marzec.xlsx",
		Result: &models.GenerationResult{
			Errors: []models.Diagnostic{{Code: "INVALID_FILER_NIP", Severity: models.SeverityError}},
		},
	}}
	require.NoError(t, svc.WriteDiagnostics(context.Background(), "Diagnostics", runs))

	assert.Equal(t, []string{
		"GET ",
		"POST :batchUpdate",
		"GET /values/Diagnostics!A1:J1",
		"PUT /values/Diagnostics!A1:J1",
		"POST :batchUpdate",
		"POST /values/Diagnostics!A:J:append",
	}, api.calls)
	assert.Contains(t, api.bodies["POST /values/Diagnostics!A:J:append"], "INVALID_FILER_NIP")
}

func TestWriteDiagnosticsExistingSheet(t *testing.T) {
	api := &fakeSheetsAPI{titles: []string{"Diagnostics"}, header: true}
	svc := newTestService(t, api)

	runs := []Run{{Result: &models.GenerationResult{Success: true}}}
	require.NoError(t, svc.WriteDiagnostics(context.Background(), "Diagnostics", runs))

	assert.Equal(t, []string{
		"GET ",
		"GET /values/Diagnostics!A1:J1",
		"POST /values/Diagnostics!A:J:append",
	}, api.calls)
}

func TestWriteDiagnosticsNothingToWrite(t *testing.T) {
	api := &fakeSheetsAPI{}
	svc := newTestService(t, api)

	require.NoError(t, svc.WriteDiagnostics(context.Background(), "Diagnostics", []Run{{Source: "x"}}))
	assert.Empty(t, api.calls)
}
