package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"ainews/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertTestDigest(t *testing.T, db *database.DB, title, generatedAt string) int64 {
	t.Helper()
	runID, err := db.InsertRun(database.Run{StartedAt: generatedAt, Tier: "recency", Selected: 2})
	if err != nil {
		t.Fatalf("insert run: %v", err)
	}
	id, err := db.InsertDigest(database.Digest{
		RunID:        runID,
		Title:        title,
		Markdown:     "# " + title + "\n\n## Top Stories\n\nContent body.",
		ArticleCount: 2,
		GeneratedAt:  generatedAt,
	})
	if err != nil {
		t.Fatalf("insert digest: %v", err)
	}
	return id
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndexRoute(t *testing.T) {
	db := openTestDB(t)
	insertTestDigest(t, db, "AI News Digest", "2026-08-20T09:00:00Z")

	srv, err := New(db)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	rec := get(t, srv, "/")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "AI News Digest") {
		t.Error("expected digest title in response body")
	}
	if !strings.Contains(body, "/digest/") {
		t.Error("expected digest link in response body")
	}
}

func TestIndexRouteEmpty(t *testing.T) {
	srv, err := New(openTestDB(t))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	rec := get(t, srv, "/")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No digests yet") {
		t.Error("expected empty state message")
	}
}

func TestDigestRoute(t *testing.T) {
	db := openTestDB(t)
	id := insertTestDigest(t, db, "AI News Digest", "2026-08-20T09:00:00Z")

	srv, err := New(db)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	rec := get(t, srv, "/digest/"+strconv.FormatInt(id, 10))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Top Stories") {
		t.Error("expected rendered markdown in response")
	}
	if strings.Contains(body, "## Top Stories") {
		t.Error("expected markdown converted to HTML, found raw markdown")
	}
}

func TestDigestLatestRoute(t *testing.T) {
	db := openTestDB(t)
	insertTestDigest(t, db, "Old Digest", "2026-08-19T09:00:00Z")
	insertTestDigest(t, db, "New Digest", "2026-08-20T09:00:00Z")

	srv, err := New(db)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	rec := get(t, srv, "/digest/latest")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "New Digest") {
		t.Error("expected latest digest in response")
	}
}

func TestDigestRouteBadID(t *testing.T) {
	srv, err := New(openTestDB(t))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	rec := get(t, srv, "/digest/notanumber")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUnknownPathIs404(t *testing.T) {
	srv, err := New(openTestDB(t))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	rec := get(t, srv, "/nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestStaticRoute(t *testing.T) {
	srv, err := New(openTestDB(t))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	rec := get(t, srv, "/static/style.css")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for stylesheet, got %d", rec.Code)
	}
}
