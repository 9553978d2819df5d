package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/PiotrWarzachowski/go-anonymizer/client"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewSessionStorage(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("NewSessionStorage returned error: %v", err)
	}
	return s
}

func TestNewSessionStorage_ReusesKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	first, err := NewSessionStorage(dir)
	if err != nil {
		t.Fatalf("NewSessionStorage returned error: %v", err)
	}
	second, err := NewSessionStorage(dir)
	if err != nil {
		t.Fatalf("NewSessionStorage returned error: %v", err)
	}
	if !bytes.Equal(first.key, second.key) {
		t.Fatalf("key changed between opens")
	}

	info, err := os.Stat(filepath.Join(dir, KeyFile))
	if err != nil {
		t.Fatalf("Stat key: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("key mode = %v, want 0600", info.Mode().Perm())
	}

	if _, err := NewSessionStorage(""); err == nil {
		t.Fatalf("NewSessionStorage(\"\") returned nil error, want error")
	}
}

func TestSession_RoundTripEncrypted(t *testing.T) {
	s := newTestStorage(t)

	stored, err := s.LoadSession()
	if err != nil || stored != nil {
		t.Fatalf("LoadSession on empty storage = %#v, %v; want nil, nil", stored, err)
	}
	if s.HasSession() {
		t.Fatalf("HasSession = true on empty storage")
	}

	sess := client.Session{Token: "tok-abc", RefreshToken: "ref-xyz", ExpireTime: 1_900_000_000}
	if err := s.SaveSession(sess, "https://api.example.com", "login"); err != nil {
		t.Fatalf("SaveSession returned error: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(s.GetBasePath(), SessionFile))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if bytes.Contains(raw, []byte("tok-abc")) || bytes.Contains(raw, []byte("ref-xyz")) {
		t.Fatalf("session file holds plaintext tokens")
	}

	stored, err = s.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession returned error: %v", err)
	}
	if stored.Session != sess || stored.BaseURL != "https://api.example.com" || stored.Method != "login" || stored.SavedAt == 0 {
		t.Fatalf("stored = %#v", stored)
	}

	if err := s.DeleteSession(); err != nil {
		t.Fatalf("DeleteSession returned error: %v", err)
	}
	if err := s.DeleteSession(); err != nil {
		t.Fatalf("second DeleteSession returned error: %v", err)
	}
	if s.HasSession() {
		t.Fatalf("HasSession = true after delete")
	}
}

func TestCredentials_RoundTrip(t *testing.T) {
	s := newTestStorage(t)

	if err := s.SaveCredentials("cid", "sid"); err != nil {
		t.Fatalf("SaveCredentials returned error: %v", err)
	}
	if !s.HasCredentials() {
		t.Fatalf("HasCredentials = false after save")
	}
	creds, err := s.LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials returned error: %v", err)
	}
	if creds.ClientID != "cid" || creds.SecretID != "sid" {
		t.Fatalf("creds = %#v", creds)
	}

	if err := s.DeleteCredentials(); err != nil {
		t.Fatalf("DeleteCredentials returned error: %v", err)
	}
	creds, err = s.LoadCredentials()
	if err != nil || creds != nil {
		t.Fatalf("LoadCredentials after delete = %#v, %v", creds, err)
	}
}

func TestLoadSession_TamperedFileFails(t *testing.T) {
	s := newTestStorage(t)
	if err := s.SaveSession(client.Session{Token: "t"}, "", "login"); err != nil {
		t.Fatalf("SaveSession returned error: %v", err)
	}

	path := filepath.Join(s.GetBasePath(), SessionFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	raw[len(raw)-1] ^= 0xFF
	if err := os.WriteFile(path, raw, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := s.LoadSession(); err == nil {
		t.Fatalf("LoadSession returned nil error for tampered file")
	}
}
