package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecom-dashboard/internal/models"
	"ecom-dashboard/internal/services"
)

func TestNewSSEHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	logger := quietLogger()

	handlers := NewSSEHandlers(analytics, logger)

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewSSEHandlers() should set analytics field")
	}
	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_renderSegmentTable(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), quietLogger())

	summary := models.RFMSummary{
		Available: true,
		Segments: []models.SegmentCount{
			{Segment: "Best Customers", Customers: 12},
			{Segment: "Lost Customers", Customers: 3},
		},
	}

	html, err := handlers.renderSegmentTable(summary)
	if err != nil {
		t.Fatalf("renderSegmentTable() failed: %v", err)
	}

	expectedContent := []string{
		`<div id="rfm-content">`,
		`<table class="modern-table">`,
		"<th>Segment</th>",
		"<th>Customers</th>",
		"Best Customers",
		"<strong>12</strong>",
		"Lost Customers",
		"<strong>3</strong>",
	}
	for _, content := range expectedContent {
		if !strings.Contains(html, content) {
			t.Errorf("expected HTML to contain %q", content)
		}
	}
}

func TestSSEHandlers_renderSegmentTable_NoData(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), quietLogger())

	summary := models.RFMSummary{
		Available: false,
		Message:   "no transactions in the selected date range",
	}

	html, err := handlers.renderSegmentTable(summary)
	if err != nil {
		t.Fatalf("renderSegmentTable() failed: %v", err)
	}

	if strings.Contains(html, "<table") {
		t.Error("no-data state should not render a table")
	}
	if !strings.Contains(html, `class="no-data"`) || !strings.Contains(html, summary.Message) {
		t.Errorf("expected no-data message in HTML, got %q", html)
	}
}

func TestSSEHandlers_HandleSummary(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/summary", nil)
	w := httptest.NewRecorder()

	handlers.HandleSummary(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("content-type = %q, want text/event-stream", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, "summaryData") {
		t.Error("response should contain summaryData signal")
	}
	if !strings.Contains(body, "Summary loaded") {
		t.Error("response should contain confirmation element")
	}
}

func TestSSEHandlers_HandleRFMSegments(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/rfm-segments", nil)
	w := httptest.NewRecorder()

	handlers.HandleRFMSegments(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, "rfm-content") {
		t.Error("response should patch the rfm-content element")
	}
	if !strings.Contains(body, "<table") {
		t.Error("response should contain the segment table")
	}
}

func TestSSEHandlers_HandleGeoSample_MissingColumns(t *testing.T) {
	analytics := services.NewAnalytics()
	// Rows without geo flags make the map unavailable.
	analytics.SetData([]models.Transaction{
		{OrderID: "o1", OrderItemID: "1", CustomerID: "c1",
			PurchasedAt: time.Date(2023, 1, 5, 10, 0, 0, 0, time.UTC), Price: 10, Category: "toys"},
	})
	handlers := NewSSEHandlers(analytics, quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/geo-sample", nil)
	w := httptest.NewRecorder()

	handlers.HandleGeoSample(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, "no-data") {
		t.Error("response should render the no-data warning element")
	}
	if !strings.Contains(body, "geoData") {
		t.Error("response should still patch the geoData signal")
	}
}

func TestSSEHandlers_InvalidDateDegrades(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/summary?start=garbage", nil)
	w := httptest.NewRecorder()

	handlers.HandleSummary(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (SSE degrades to full span)", w.Code)
	}
	if !strings.Contains(w.Body.String(), "summaryData") {
		t.Error("degraded request should still deliver the summary signal")
	}
}

func TestSSEHandlers_HandleRefreshAll(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/refresh-all", nil)
	w := httptest.NewRecorder()

	handlers.HandleRefreshAll(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	expectedSignals := []string{
		"summaryData",
		"trendData",
		"categoriesData",
		"reviewsData",
		"geoData",
	}
	for _, signal := range expectedSignals {
		if !strings.Contains(body, signal) {
			t.Errorf("response should contain %q signal", signal)
		}
	}
	if !strings.Contains(body, "rfm-content") {
		t.Error("response should patch the segment table")
	}
}

func TestSSEHandlers_HeaderConsistency(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), quietLogger())

	sseEndpoints := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"summary", handlers.HandleSummary},
		{"revenue-trend", handlers.HandleRevenueTrend},
		{"categories", handlers.HandleCategories},
		{"reviews", handlers.HandleReviews},
		{"geo-sample", handlers.HandleGeoSample},
		{"rfm-segments", handlers.HandleRFMSegments},
		{"refresh-all", handlers.HandleRefreshAll},
	}

	for _, endpoint := range sseEndpoints {
		t.Run(endpoint.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			endpoint.handler(w, req)

			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("content-type = %q, want text/event-stream", ct)
			}
			if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
				t.Errorf("cache-control = %q, want no-cache", cc)
			}

			body := w.Body.String()
			if !strings.Contains(body, "event:") || !strings.Contains(body, "data:") {
				t.Error("response should contain SSE event framing")
			}
		})
	}
}
