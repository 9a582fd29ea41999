package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestQuery_Values_TodayOnly(t *testing.T) {
	q := Query{
		Sources:   []string{"habr_dev", "tproger"},
		Keyword:   "rust",
		TodayOnly: true,
		FromDate:  "2024-01-01",
		ToDate:    "2024-01-31",
		Limit:     50,
		Offset:    0,
	}

	v := q.Values()
	if got := v.Get("today_only"); got != "true" {
		t.Errorf("today_only = %q, want true", got)
	}
	if v.Has("from_date") || v.Has("to_date") {
		t.Error("today-only query must omit date bounds regardless of their contents")
	}
	if got := v.Get("sources"); got != "habr_dev,tproger" {
		t.Errorf("sources = %q, want comma-joined keys", got)
	}
}

func TestQuery_Values_CustomRange(t *testing.T) {
	q := Query{
		Keyword:  "rust",
		FromDate: "2024-01-01",
		ToDate:   "2024-01-31",
		Limit:    50,
		Offset:   100,
	}

	v := q.Values()
	want := url.Values{
		"q":          {"rust"},
		"today_only": {"false"},
		"from_date":  {"2024-01-01"},
		"to_date":    {"2024-01-31"},
		"limit":      {"50"},
		"offset":     {"100"},
	}
	for key, vals := range want {
		if got := v.Get(key); got != vals[0] {
			t.Errorf("%s = %q, want %q", key, got, vals[0])
		}
	}
	if v.Has("sources") {
		t.Error("empty selection must omit sources so the server defaults to all")
	}
}

func TestQuery_Values_TrimsKeyword(t *testing.T) {
	v := Query{Keyword: "  ai  ", Limit: 50}.Values()
	if got := v.Get("q"); got != "ai" {
		t.Errorf("q = %q, want trimmed keyword", got)
	}

	v = Query{Keyword: "   ", Limit: 50}.Values()
	if v.Has("q") {
		t.Error("whitespace-only keyword must be omitted")
	}
}

func TestClient_Sources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sources" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"key":"habr_dev","title":"Habr","enabled":true},{"key":"vc_all","title":"VC.ru","enabled":false}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "newsdeck-test", time.Second)
	sources, err := client.Sources(context.Background())
	if err != nil {
		t.Fatalf("Sources() error = %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Key != "habr_dev" || !sources[0].Enabled {
		t.Errorf("unexpected first source: %+v", sources[0])
	}
}

func TestClient_Articles_EmptyIsNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "newsdeck-test", time.Second)
	articles, err := client.Articles(context.Background(), Query{Limit: 50})
	if err != nil {
		t.Fatalf("empty result must not be an error, got %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("expected 0 articles, got %d", len(articles))
	}
}

func TestClient_Articles_PassesQuery(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[{"id":1,"title":"Hello","url":"https://example.org/1","source_key":"habr_dev","source_title":"Habr"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "newsdeck-test", time.Second)
	articles, err := client.Articles(context.Background(), Query{
		Sources:   []string{"habr_dev"},
		TodayOnly: true,
		Limit:     100,
		Offset:    200,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 1 || articles[0].Title != "Hello" {
		t.Fatalf("unexpected articles: %+v", articles)
	}
	if gotQuery.Get("limit") != "100" || gotQuery.Get("offset") != "200" {
		t.Errorf("pagination not passed through: %v", gotQuery)
	}
}

func TestClient_Articles_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "newsdeck-test", time.Second)
	if _, err := client.Articles(context.Background(), Query{Limit: 50}); err == nil {
		t.Error("expected error for HTTP 500")
	}
}

func TestClient_Articles_ErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"unknown source key"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "newsdeck-test", time.Second)
	_, err := client.Articles(context.Background(), Query{Limit: 50})
	if err == nil {
		t.Fatal("expected error for HTTP 422")
	}
	if !strings.Contains(err.Error(), "unknown source key") {
		t.Errorf("error %q should carry the backend detail message", err)
	}
}

func TestClient_Refresh_ErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"too many extra feeds"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "newsdeck-test", time.Second)
	err := client.Refresh(context.Background(), RefreshRequest{LimitPerSource: 20})
	if err == nil {
		t.Fatal("expected error for HTTP 400")
	}
	if !strings.Contains(err.Error(), "too many extra feeds") {
		t.Errorf("error %q should carry the backend detail message", err)
	}
}

func TestClient_Articles_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "newsdeck-test", time.Second)
	if _, err := client.Articles(context.Background(), Query{Limit: 50}); err == nil {
		t.Error("expected error for malformed body")
	}
}

func TestClient_Refresh(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"accepted", http.StatusAccepted, false},
		{"server error", http.StatusInternalServerError, true},
		{"bad request", http.StatusBadRequest, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"status":"ok"}`))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "newsdeck-test", time.Second)
			err := client.Refresh(context.Background(), RefreshRequest{
				Sources:        []string{"habr_dev"},
				LimitPerSource: 20,
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("Refresh() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
