package preflight

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"curator/internal/backend"
	"curator/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/list-users":
			_, _ = io.WriteString(w, `[{"id":1,"username":"sam"}]`)
		case "/sign-in":
			if user, token, ok := r.BasicAuth(); !ok || user != "sam" || token != "good" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, `{"user_id":1,"permission":"Default"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, url, username, token string) *backend.Client {
	t.Helper()
	client, err := backend.New(backend.Config{BaseURL: url, Username: username, Token: token})
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	return client
}

func TestCheckServer(t *testing.T) {
	srv := newServer(t)
	if result := CheckServer(context.Background(), newClient(t, srv.URL, "", "")); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}

	missing := newClient(t, srv.URL+"/missing", "", "")
	if result := CheckServer(context.Background(), missing); result.Passed {
		t.Fatal("expected failure for unknown endpoint")
	}
}

func TestCheckCredentials(t *testing.T) {
	srv := newServer(t)
	if result := CheckCredentials(context.Background(), newClient(t, srv.URL, "sam", "good")); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	result := CheckCredentials(context.Background(), newClient(t, srv.URL, "sam", "bad"))
	if result.Passed {
		t.Fatal("expected failure for bad token")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_SkipsCredentialsWithoutToken(t *testing.T) {
	srv := newServer(t)
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg, newClient(t, srv.URL, "", ""))
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if last := results[3]; last.Name != credentialsCheck || !last.Skipped {
		t.Fatalf("expected skipped credentials check, got %+v", last)
	}
	if Failed(results) {
		t.Fatalf("expected no failures, got %+v", results)
	}
}

func TestRunAll_ReportsMissingStateDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	results := RunAll(context.Background(), cfg, nil)
	if len(results) != 2 {
		t.Fatalf("expected directory checks only, got %d", len(results))
	}
	if !Failed(results) {
		t.Fatal("expected missing directories to fail")
	}
}
