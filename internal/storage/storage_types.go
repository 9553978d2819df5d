package storage

import (
	"github.com/PiotrWarzachowski/go-anonymizer/client"
)

// Storage keeps the CLI's session and credentials encrypted at rest under
// basePath with a per-install AES-256 key.
type Storage struct {
	basePath string
	key      []byte
}

// StoredSession is the client session plus when it was obtained.
type StoredSession struct {
	Session client.Session `json:"session"`
	BaseURL string         `json:"base_url"`
	SavedAt int64          `json:"saved_at"`
	Method  string         `json:"method"`
}

type StoredCredentials struct {
	ClientID string `json:"client_id"`
	SecretID string `json:"secret_id"`
}
