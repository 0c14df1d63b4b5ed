package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFDAClientFetchRecalls(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"meta":{"results":{"total":2}},"results":[{"recall_number":"F-1"},{"recall_number":"F-2"}]}`))
	}))
	t.Cleanup(srv.Close)

	client := NewFDAClient(srv.Client(), srv.URL+"/food/enforcement.json", 100, "relay-test")
	records, err := client.FetchRecalls(context.Background())
	if err != nil {
		t.Fatalf("FetchRecalls() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records len = %d, want 2", len(records))
	}
	if gotQuery != "sort=report_date:desc&limit=100" {
		t.Fatalf("query = %q", gotQuery)
	}
	if gotUA != "relay-test" {
		t.Fatalf("user agent = %q", gotUA)
	}

	var first map[string]string
	if err := json.Unmarshal(records[0], &first); err != nil {
		t.Fatalf("decode first record: %v", err)
	}
	if first["recall_number"] != "F-1" {
		t.Fatalf("first record = %v", first)
	}
}

func TestFDAClientNon2xxIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":"SERVER_ERROR"}}`, http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := NewFDAClient(srv.Client(), srv.URL, 10, "").FetchRecalls(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("FetchRecalls() error = %v, want StatusError", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", statusErr.StatusCode)
	}
	if strings.Contains(statusErr.URL, "?") {
		t.Fatalf("status error url should not carry the query: %s", statusErr.URL)
	}
	if !strings.HasPrefix(err.Error(), "fetch fda recalls: ") {
		t.Fatalf("error = %q", err.Error())
	}
}

func TestFDAClientMissingResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"meta":{}}`))
	}))
	t.Cleanup(srv.Close)

	if _, err := NewFDAClient(srv.Client(), srv.URL, 10, "").FetchRecalls(context.Background()); err == nil {
		t.Fatal("FetchRecalls() expected error for missing results")
	}
}

func TestFDAClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := NewFDAClient(NewHTTPClient(50*time.Millisecond), srv.URL, 10, "")
	if _, err := client.FetchRecalls(context.Background()); err == nil {
		t.Fatal("FetchRecalls() expected timeout error")
	}
}

func TestUSDAClientFetchSnapshot(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"field_recall_number":"001-2024","langcode":"English"}]`))
	}))
	t.Cleanup(srv.Close)

	data, err := NewUSDAClient(srv.Client(), srv.URL, "").FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}
	if !strings.Contains(gotQuery, "field_product_items_value=meat") {
		t.Fatalf("query missing meat filter: %s", gotQuery)
	}
	if !strings.Contains(gotQuery, "field_recall_number=&") {
		t.Fatalf("query missing empty recall number filter: %s", gotQuery)
	}
	if !strings.Contains(string(data), "\n  {") {
		t.Fatalf("snapshot should be indented: %s", data)
	}

	var items []map[string]string
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(items) != 1 || items[0]["field_recall_number"] != "001-2024" {
		t.Fatalf("items = %v", items)
	}
}

func TestUSDAClientUnwrapsDataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"field_recall_number":"002-2024"}]}`))
	}))
	t.Cleanup(srv.Close)

	data, err := NewUSDAClient(srv.Client(), srv.URL, "").FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}
	var items []map[string]string
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(items) != 1 || items[0]["field_recall_number"] != "002-2024" {
		t.Fatalf("items = %v", items)
	}
}

func TestUSDAClientRejectsNonArray(t *testing.T) {
	for _, body := range []string{`{"message":"maintenance"}`, `"oops"`, ``} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := NewUSDAClient(srv.Client(), srv.URL, "").FetchSnapshot(context.Background())
		srv.Close()
		if err == nil {
			t.Fatalf("FetchSnapshot(%q) expected error", body)
		}
	}
}

func TestRequesterRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"recall_number":"F-1"}]}`))
	}))
	t.Cleanup(srv.Close)

	r := newRequester(srv.Client(), "")
	r.maxBody = 8
	if _, err := r.get(context.Background(), srv.URL+"?limit=1"); !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("get() error = %v, want ErrResponseTooLarge", err)
	}

	r.maxBody = 1 << 10
	body, err := r.get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("get() within limit error = %v", err)
	}
	if !strings.Contains(string(body), "F-1") {
		t.Fatalf("body = %s", body)
	}
}

func TestRequesterAcceptsBodyAtLimit(t *testing.T) {
	payload := `[1,2,3]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)

	r := newRequester(srv.Client(), "")
	r.maxBody = int64(len(payload))
	body, err := r.get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("get() at limit error = %v", err)
	}
	if string(body) != payload {
		t.Fatalf("body = %q", body)
	}
}
