package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/prodtrack/internal/config"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

func newServer(t *testing.T, status int, body string, capture func(r *http.Request, payload map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if capture != nil {
			capture(r, payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) config.WhatsAppConfig {
	return config.WhatsAppConfig{
		AccessToken:     "token-123",
		PhoneNumberID:   "555",
		BaseURL:         baseURL + "/",
		APIVersion:      "v20.0",
		ReportRecipient: "923001234567",
	}
}

func TestSendText(t *testing.T) {
	var path, auth string
	var sent map[string]any
	srv := newServer(t, http.StatusOK, `{"messages":[{"id":"wamid.1"}]}`, func(r *http.Request, payload map[string]any) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		sent = payload
	})

	id, err := NewClient(testConfig(srv.URL)).SendText(context.Background(), "923001234567", "hello")
	require.NoError(t, err)
	assert.Equal(t, "wamid.1", id)
	assert.Equal(t, "/v20.0/555/messages", path)
	assert.Equal(t, "Bearer token-123", auth)
	assert.Equal(t, "whatsapp", sent["messaging_product"])
	assert.Equal(t, "923001234567", sent["to"])
}

func TestSendText_APIError(t *testing.T) {
	srv := newServer(t, http.StatusUnauthorized, `{"error":{"message":"Invalid OAuth access token","code":190}}`, nil)

	_, err := NewClient(testConfig(srv.URL)).SendText(context.Background(), "1", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code=190")
	assert.Contains(t, err.Error(), "Invalid OAuth access token")
}

func TestReportNotifier(t *testing.T) {
	var body string
	srv := newServer(t, http.StatusOK, `{"messages":[{"id":"wamid.2"}]}`, func(_ *http.Request, payload map[string]any) {
		text, _ := payload["text"].(map[string]any)
		body, _ = text["body"].(string)
	})

	cfg := testConfig(srv.URL)
	notifier := NewReportNotifier(NewClient(cfg), cfg.ReportRecipient, nil)
	report := &models.DailyReport{
		Date:   "2025-06-01",
		Totals: models.Totals{TotalProductions: 1, TotalPieces: 10, TotalWeight: 25},
		Shifts: []models.ShiftTotals{{Shift: models.ShiftMorning, Totals: models.Totals{TotalProductions: 1, TotalPieces: 10, TotalWeight: 25}}},
	}

	require.NoError(t, notifier.NotifyDailyReport(context.Background(), report))
	assert.Contains(t, body, "Production report 2025-06-01")
	assert.Contains(t, body, "25.00 kg")
}
