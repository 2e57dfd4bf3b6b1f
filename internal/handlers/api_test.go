package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"ecom-dashboard/internal/models"
	"ecom-dashboard/internal/services"
)

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics()
	jan := time.Date(2023, 1, 5, 10, 0, 0, 0, time.UTC)
	feb := time.Date(2023, 2, 10, 14, 0, 0, 0, time.UTC)

	a.SetData([]models.Transaction{
		{OrderID: "o1", OrderItemID: "1", CustomerID: "c1", PurchasedAt: jan, Price: 100, Category: "health_beauty",
			ReviewScore: 5, HasReview: true, Lat: -23.55, Lng: -46.63, HasGeo: true},
		{OrderID: "o2", OrderItemID: "1", CustomerID: "c2", PurchasedAt: feb, Price: 200, Category: "toys",
			ReviewScore: 4, HasReview: true, Lat: -22.9, Lng: -43.2, HasGeo: true},
	})
	return a
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func decodeSuccess(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if success, ok := response["success"].(bool); !ok || !success {
		t.Fatalf("expected success=true in response: %v", response)
	}
	return response
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	handlers := NewAPIHandlers(analytics, quietLogger())

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
}

func TestAPIHandlers_PanelEndpoints(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), quietLogger())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		path    string
	}{
		{"summary", handlers.HandleSummary, "/api/summary"},
		{"revenue-trend", handlers.HandleRevenueTrend, "/api/revenue-trend"},
		{"categories", handlers.HandleCategories, "/api/categories"},
		{"reviews", handlers.HandleReviews, "/api/reviews"},
		{"geo-sample", handlers.HandleGeoSample, "/api/geo-sample"},
		{"rfm-segments", handlers.HandleRFMSegments, "/api/rfm-segments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			tt.handler(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type = %q, want application/json", ct)
			}
			if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
				t.Errorf("cache-control = %q", cc)
			}

			response := decodeSuccess(t, w)
			if _, ok := response["data"]; !ok {
				t.Error("expected data field in response")
			}
		})
	}
}

func TestAPIHandlers_DateFilter(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/summary?start=2023-01-01&end=2023-01-31", nil)
	w := httptest.NewRecorder()

	handlers.HandleSummary(w, req)

	response := decodeSuccess(t, w)
	data := response["data"].(map[string]interface{})
	if orders := data["total_orders"].(float64); orders != 1 {
		t.Errorf("total_orders = %v, want 1 (only January order)", orders)
	}
}

func TestAPIHandlers_InvalidDate(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), quietLogger())

	for _, path := range []string{
		"/api/summary?start=not-a-date",
		"/api/rfm-segments?end=2023-13-99",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()

		if path == "/api/summary?start=not-a-date" {
			handlers.HandleSummary(w, req)
		} else {
			handlers.HandleRFMSegments(w, req)
		}

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", path, w.Code, http.StatusBadRequest)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode JSON: %v", err)
		}
		if success, ok := response["success"].(bool); !ok || success {
			t.Errorf("%s: expected success=false", path)
		}
	}
}

func TestAPIHandlers_InvertedRangeIsNotAnError(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/rfm-segments?start=2023-02-01&end=2023-01-01", nil)
	w := httptest.NewRecorder()

	handlers.HandleRFMSegments(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (inverted range degrades, not fails)", w.Code)
	}

	response := decodeSuccess(t, w)
	data := response["data"].(map[string]interface{})
	if available := data["available"].(bool); available {
		t.Error("inverted range should surface a no-data RFM state")
	}
	if msg, _ := data["message"].(string); msg == "" {
		t.Error("no-data state should carry a message")
	}
}

func TestAPIHandlers_HandleDateRange(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/date-range", nil)
	w := httptest.NewRecorder()

	handlers.HandleDateRange(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	response := decodeSuccess(t, w)
	data := response["data"].(map[string]interface{})
	if data["start"] != "2023-01-05" || data["end"] != "2023-02-10" {
		t.Errorf("date range = %v", data)
	}
}

func TestAPIHandlers_HandleDateRange_NoData(t *testing.T) {
	handlers := NewAPIHandlers(services.NewAnalytics(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/date-range", nil)
	w := httptest.NewRecorder()

	handlers.HandleDateRange(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without data", w.Code)
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handlers.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "" {
		t.Errorf("health endpoint should not set cache-control, got %q", cc)
	}

	response := decodeSuccess(t, w)
	data := response["data"].(map[string]interface{})
	if status, ok := data["status"].(string); !ok || status != "healthy" {
		t.Errorf("status = %q, want healthy", status)
	}
	if timestamp, _ := data["timestamp"].(string); timestamp == "" {
		t.Error("expected non-empty timestamp")
	} else if _, err := time.Parse(time.RFC3339, timestamp); err != nil {
		t.Errorf("invalid timestamp format: %v", err)
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()

	handlers.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	response := decodeSuccess(t, w)
	data := response["data"].(map[string]interface{})
	if data["item_strategy"] != "precise" {
		t.Errorf("item_strategy = %v, want precise", data["item_strategy"])
	}
}
