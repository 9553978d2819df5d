package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/PiotrWarzachowski/go-anonymizer/client"
	"github.com/PiotrWarzachowski/go-anonymizer/internal/config"
	"github.com/PiotrWarzachowski/go-anonymizer/internal/storage"
)

type fakeService struct {
	mu        sync.Mutex
	logins    int
	refreshes int
	polls     int
	seq       int
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/login":
		var body struct {
			ClientID string `json:"clientId"`
			SecretID string `json:"secretId"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.ClientID != "cid" || body.SecretID != "sid" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		f.logins++
		f.issue(w)
	case "/token":
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.RefreshToken != "good-refresh" {
			http.Error(w, "bad refresh", http.StatusUnauthorized)
			return
		}
		f.refreshes++
		f.issue(w)
	case "/innovation-service/anonymization":
		f.polls++
		status := client.StatusStarted
		if f.polls >= 3 {
			status = client.StatusSucceeded
		}
		_ = json.NewEncoder(w).Encode(client.JobStatusResponse{Status: status})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeService) issue(w http.ResponseWriter) {
	f.seq++
	_ = json.NewEncoder(w).Encode(client.Session{
		Token:        fmt.Sprintf("token-%d", f.seq),
		RefreshToken: "good-refresh",
		ExpireTime:   time.Now().Add(time.Hour).Unix(),
	})
}

func (f *fakeService) counts() (logins, refreshes, polls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins, f.refreshes, f.polls
}

func newTestProvider(t *testing.T, cfg config.Config) (*JobProvider, *fakeService) {
	t.Helper()
	svc := &fakeService{}
	server := httptest.NewServer(svc)
	t.Cleanup(server.Close)

	cfg.BaseURL = server.URL
	if cfg.SessionDir == "" {
		cfg.SessionDir = filepath.Join(t.TempDir(), "db")
	}
	p, err := NewJobProvider(cfg, nil)
	if err != nil {
		t.Fatalf("NewJobProvider returned error: %v", err)
	}
	return p, svc
}

func TestEnsureSession_NoSessionNoCredentials(t *testing.T) {
	p, svc := newTestProvider(t, config.Config{})

	err := p.EnsureSession(context.Background())
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("EnsureSession error = %v, want ErrNotLoggedIn", err)
	}
	if logins, refreshes, _ := svc.counts(); logins+refreshes != 0 {
		t.Fatalf("unexpected auth calls: logins=%d refreshes=%d", logins, refreshes)
	}
}

func TestEnsureSession_LogsInWithEnvCredentialsAndPersists(t *testing.T) {
	p, svc := newTestProvider(t, config.Config{ClientID: "cid", SecretID: "sid"})

	if err := p.EnsureSession(context.Background()); err != nil {
		t.Fatalf("EnsureSession returned error: %v", err)
	}
	if logins, _, _ := svc.counts(); logins != 1 {
		t.Fatalf("logins = %d, want 1", logins)
	}

	stored, err := p.Storage().LoadSession()
	if err != nil || stored == nil {
		t.Fatalf("LoadSession = %#v, %v", stored, err)
	}
	if stored.Session != p.Client().Session() || stored.Method != "login" {
		t.Fatalf("stored = %#v, want current session from login", stored)
	}

	if err := p.EnsureSession(context.Background()); err != nil {
		t.Fatalf("second EnsureSession returned error: %v", err)
	}
	if logins, _, _ := svc.counts(); logins != 1 {
		t.Fatalf("valid session triggered another login: logins=%d", logins)
	}
}

func TestEnsureSession_RefreshesExpiredStoredSession(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	p, svc := newTestProvider(t, config.Config{SessionDir: dir})

	expired := client.Session{Token: "old", RefreshToken: "good-refresh", ExpireTime: time.Now().Add(-time.Minute).Unix()}
	store, err := storage.NewSessionStorage(dir)
	if err != nil {
		t.Fatalf("NewSessionStorage returned error: %v", err)
	}
	if err := store.SaveSession(expired, p.Client().BaseURL(), "login"); err != nil {
		t.Fatalf("SaveSession returned error: %v", err)
	}

	restored, err := NewJobProvider(config.Config{SessionDir: dir, BaseURL: p.Client().BaseURL()}, nil)
	if err != nil {
		t.Fatalf("NewJobProvider returned error: %v", err)
	}
	if restored.Client().Session() != expired {
		t.Fatalf("restored session = %#v, want %#v", restored.Client().Session(), expired)
	}

	if err := restored.EnsureSession(context.Background()); err != nil {
		t.Fatalf("EnsureSession returned error: %v", err)
	}
	if logins, refreshes, _ := svc.counts(); refreshes != 1 || logins != 0 {
		t.Fatalf("logins=%d refreshes=%d, want a single refresh", logins, refreshes)
	}
	if restored.Client().Session().Token == "old" {
		t.Fatalf("session not replaced after refresh")
	}
}

func TestEnsureSession_FallsBackToStoredCredentials(t *testing.T) {
	p, svc := newTestProvider(t, config.Config{})
	if err := p.Storage().SaveCredentials("cid", "sid"); err != nil {
		t.Fatalf("SaveCredentials returned error: %v", err)
	}
	p.Client().SetSession(client.Session{Token: "old", RefreshToken: "revoked", ExpireTime: 1})

	if err := p.EnsureSession(context.Background()); err != nil {
		t.Fatalf("EnsureSession returned error: %v", err)
	}
	if logins, refreshes, _ := svc.counts(); logins != 1 || refreshes != 0 {
		t.Fatalf("logins=%d refreshes=%d, want login after rejected refresh", logins, refreshes)
	}
}

func TestLogout_ClearsSessionAndOptionallyCredentials(t *testing.T) {
	p, _ := newTestProvider(t, config.Config{})
	if _, err := p.Login(context.Background(), "cid", "sid", true); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if err := p.Logout(false); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if p.Client().IsLoggedIn() || p.Storage().HasSession() {
		t.Fatalf("session survived logout")
	}
	if !p.Storage().HasCredentials() {
		t.Fatalf("credentials removed without clearCredentials")
	}

	if err := p.Logout(true); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if p.Storage().HasCredentials() {
		t.Fatalf("credentials survived Logout(true)")
	}
}

func TestWaitForJob_PollsUntilTerminal(t *testing.T) {
	p, svc := newTestProvider(t, config.Config{PollInterval: 10 * time.Millisecond})
	if _, err := p.Login(context.Background(), "cid", "sid", false); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	var seen []client.JobStatus
	status, err := p.WaitForJob(context.Background(), "job-1", func(s *client.JobStatusResponse) {
		seen = append(seen, s.Status)
	})
	if err != nil {
		t.Fatalf("WaitForJob returned error: %v", err)
	}
	if status.Status != client.StatusSucceeded {
		t.Fatalf("status = %q, want Succeeded", status.Status)
	}
	if _, _, polls := svc.counts(); polls != 3 || len(seen) != 3 {
		t.Fatalf("polls=%d seen=%v, want 3", polls, seen)
	}
}

func TestWaitForJob_StopsOnContextCancel(t *testing.T) {
	p, _ := newTestProvider(t, config.Config{PollInterval: time.Hour})
	if _, err := p.Login(context.Background(), "cid", "sid", false); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	status, err := p.WaitForJob(ctx, "job-1", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitForJob error = %v, want deadline exceeded", err)
	}
	if status == nil || status.Status != client.StatusStarted {
		t.Fatalf("last status = %#v, want Started", status)
	}
}
