package twoup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL, 5*time.Second, "pt", "test-client", Credentials{})
}

func pageResponse(t *testing.T, page, totalPages int, items ...string) string {
	t.Helper()
	return fmt.Sprintf(`{"code": "200", "data": {"items": [%s], "page": %d, "totalPages": %d}}`,
		strings.Join(items, ","), page, totalPages)
}

func eventJSON(eventID, home, away string) string {
	return fmt.Sprintf(`{"eventId": %q, "homeTeamName": %q, "awayTeamName": %q, "eventTime": 1767225600000, "markets": []}`,
		eventID, home, away)
}

func TestCursorWindowTermination(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, pageResponse(t, 1, 1))
	}))
	defer srv.Close()

	cursor := NewCursor(testClient(srv), 48, 50, 1)
	fixtures, err := cursor.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fixtures) != 0 {
		t.Errorf("expected no fixtures, got %d", len(fixtures))
	}
	if requests != 1 {
		t.Errorf("an empty window must halt the run after one request, got %d", requests)
	}
	if stats := cursor.Stats(); stats.Windows != 1 || stats.Pages != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCursorDedupAcrossWindows(t *testing.T) {
	var bodies []listRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req listRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		bodies = append(bodies, req)
		switch len(bodies) {
		case 1:
			fmt.Fprint(w, pageResponse(t, 1, 1, eventJSON("e1", "A", "B"), eventJSON("e2", "C", "D")))
		default:
			// The overlap boundary repeats e1; nothing new ends the run.
			fmt.Fprint(w, pageResponse(t, 1, 1, eventJSON("e1", "A", "B")))
		}
	}))
	defer srv.Close()

	cursor := NewCursor(testClient(srv), 48, 50, 1)
	fixtures, err := cursor.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fixtures) != 2 {
		t.Fatalf("expected 2 fixtures after dedup, got %d", len(fixtures))
	}
	if fixtures[0].Home != "A" || fixtures[1].Home != "C" {
		t.Errorf("unexpected fixtures: %+v", fixtures)
	}

	stats := cursor.Stats()
	if stats.Windows != 2 || stats.Duplicates != 1 || stats.Fixtures != 2 {
		t.Errorf("stats = %+v", stats)
	}

	// Second window starts right after the first one ends.
	if len(bodies) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(bodies))
	}
	if bodies[1].StartTime != bodies[0].EndTime+1 {
		t.Errorf("window must advance to end+1: first end %d, second start %d", bodies[0].EndTime, bodies[1].StartTime)
	}
	width := int64(48 * time.Hour / time.Millisecond)
	if bodies[0].EndTime-bodies[0].StartTime != width {
		t.Errorf("window width = %d ms, want %d", bodies[0].EndTime-bodies[0].StartTime, width)
	}
}

func TestCursorPagination(t *testing.T) {
	var pagesRequested []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req listRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		pagesRequested = append(pagesRequested, req.PageNum)
		switch {
		case len(pagesRequested) == 1:
			fmt.Fprint(w, pageResponse(t, 1, 2, eventJSON("e1", "A", "B"), eventJSON("e2", "C", "D")))
		case len(pagesRequested) == 2:
			fmt.Fprint(w, pageResponse(t, 2, 2, eventJSON("e3", "E", "F")))
		default:
			fmt.Fprint(w, pageResponse(t, 1, 1))
		}
	}))
	defer srv.Close()

	cursor := NewCursor(testClient(srv), 48, 2, 1)
	fixtures, err := cursor.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fixtures) != 3 {
		t.Errorf("expected 3 fixtures, got %d", len(fixtures))
	}
	// Two pages of window 1, then the empty window 2.
	want := []int{1, 2, 1}
	if len(pagesRequested) != len(want) {
		t.Fatalf("pages requested: %v", pagesRequested)
	}
	for i, p := range want {
		if pagesRequested[i] != p {
			t.Errorf("request %d asked page %d, want %d", i, pagesRequested[i], p)
		}
	}
}

func TestCursorPageErrorAbortsRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code": "500", "msg": "internal"}`)
	}))
	defer srv.Close()

	cursor := NewCursor(testClient(srv), 48, 50, 1)
	if _, err := cursor.Run(context.Background()); err == nil {
		t.Fatal("expected run to abort on envelope error")
	}
}

func TestClientEnvelopeErrorNotRetried(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, `{"code": "40301", "msg": "signature required"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv).ListEvents(context.Background(), 0, 1, 1, 50)
	if err == nil {
		t.Fatal("expected envelope error")
	}
	if !strings.Contains(err.Error(), "40301") || !strings.Contains(err.Error(), "X-Request-Sign") {
		t.Errorf("error should carry the code and credential guidance: %v", err)
	}
	if requests != 1 {
		t.Errorf("envelope rejection must not be retried, got %d requests", requests)
	}
}

func TestClientRetriesTransientStatus(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, pageResponse(t, 1, 1))
	}))
	defer srv.Close()

	data, err := testClient(srv).ListEvents(context.Background(), 0, 1, 1, 50)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if requests != 3 {
		t.Errorf("expected 2 retries then success, got %d requests", requests)
	}
	if len(data.Items) != 0 {
		t.Errorf("unexpected items: %+v", data.Items)
	}
}

func TestClientFatalOnClientError(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "blocked")
	}))
	defer srv.Close()

	_, err := testClient(srv).ListEvents(context.Background(), 0, 1, 1, 50)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "blocked") {
		t.Errorf("error should carry status and body fragment: %v", err)
	}
	if requests != 1 {
		t.Errorf("4xx must not be retried, got %d requests", requests)
	}
}

func TestClientMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>maintenance</html>")
	}))
	defer srv.Close()

	_, err := testClient(srv).ListEvents(context.Background(), 0, 1, 1, 50)
	if err == nil || !strings.Contains(err.Error(), "decode") {
		t.Errorf("expected decode error with body fragment, got %v", err)
	}
}

func TestClientSendsSignedHeaders(t *testing.T) {
	var got http.Header
	var body listRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&body)
		fmt.Fprint(w, pageResponse(t, 1, 1))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, "pt", "sock-1", Credentials{
		Cookies:          "session=abc",
		RequestSign:      "sig",
		RequestTimestamp: "1700000000",
	})
	if _, err := client.ListEvents(context.Background(), 100, 200, 2, 25); err != nil {
		t.Fatalf("ListEvents: %v", err)
	}

	headerWant := map[string]string{
		"Lang":                "pt",
		"Odds":                "Decimal",
		"Socketclientid":      "sock-1",
		"Cookie":              "session=abc",
		"X-Request-Sign":      "sig",
		"X-Request-Timestamp": "1700000000",
	}
	for k, want := range headerWant {
		if got.Get(k) != want {
			t.Errorf("header %s = %q, want %q", k, got.Get(k), want)
		}
	}

	if body.IsLive != 0 || body.PageType != pageTypeUpcoming || body.SportURL != "soccer" {
		t.Errorf("request body = %+v", body)
	}
	if body.StartTime != 100 || body.EndTime != 200 || body.PageNum != 2 || body.PageSize != 25 {
		t.Errorf("request paging = %+v", body)
	}
}
