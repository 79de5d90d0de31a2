package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchCSV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("Month,Coal\n01/2023,50\n"))
	}))
	defer server.Close()

	c := NewClient(5 * time.Second)
	table, err := c.FetchCSV(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchCSV failed: %v", err)
	}
	if len(table.Header) != 2 || table.Header[0] != "Month" {
		t.Errorf("unexpected header: %#v", table.Header)
	}
	if len(table.Rows) != 1 || table.Rows[0][1] != "50" {
		t.Errorf("unexpected rows: %#v", table.Rows)
	}
}

func TestFetchCSVErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(5 * time.Second)
	if _, err := c.FetchCSV(context.Background(), server.URL); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestFetchCSVNetworkFailure(t *testing.T) {
	c := NewClient(500 * time.Millisecond)
	// Closed server: the fetch is single-shot, so the error surfaces
	// immediately with no retry delay.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	start := time.Now()
	if _, err := c.FetchCSV(context.Background(), server.URL); err == nil {
		t.Error("expected error for refused connection")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("single-shot fetch took %v; retries are not allowed here", elapsed)
	}
}
