package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/PiotrWarzachowski/go-anonymizer/client"
)

const (
	SessionFile     = "session.enc"
	KeyFile         = ".key"
	CredentialsFile = "credentials.enc"
)

// NewSessionStorage opens (creating if needed) the storage directory at
// basePath and loads or generates its key.
func NewSessionStorage(basePath string) (*Storage, error) {
	if basePath == "" {
		return nil, errors.New("storage directory is empty")
	}

	if err := os.MkdirAll(basePath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	s := &Storage{
		basePath: basePath,
	}

	if err := s.loadOrGenerateKey(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Storage) loadOrGenerateKey() error {
	keyPath := filepath.Join(s.basePath, KeyFile)

	keyData, err := os.ReadFile(keyPath)
	if err == nil && len(keyData) == 32 {
		s.key = keyData
		return nil
	}

	s.key = make([]byte, 32)
	if _, err := rand.Read(s.key); err != nil {
		return fmt.Errorf("failed to generate encryption key: %w", err)
	}

	if err := os.WriteFile(keyPath, s.key, 0600); err != nil {
		return fmt.Errorf("failed to save encryption key: %w", err)
	}

	return nil
}

func (s *Storage) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (s *Storage) encrypt(plaintext []byte) ([]byte, error) {
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *Storage) decrypt(ciphertext []byte) ([]byte, error) {
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// writeSealed marshals v as JSON, encrypts it and writes it to name.
func (s *Storage) writeSealed(name, what string, v any) error {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", what, err)
	}

	encrypted, err := s.encrypt(jsonData)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", what, err)
	}

	if err := os.WriteFile(filepath.Join(s.basePath, name), encrypted, 0600); err != nil {
		return fmt.Errorf("failed to write %s file: %w", what, err)
	}
	return nil
}

// readSealed reverses writeSealed. A missing file reports found=false.
func (s *Storage) readSealed(name, what string, v any) (bool, error) {
	encrypted, err := os.ReadFile(filepath.Join(s.basePath, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s file: %w", what, err)
	}

	decrypted, err := s.decrypt(encrypted)
	if err != nil {
		return false, fmt.Errorf("failed to decrypt %s: %w", what, err)
	}

	if err := json.Unmarshal(decrypted, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", what, err)
	}
	return true, nil
}

func (s *Storage) remove(name, what string) error {
	err := os.Remove(filepath.Join(s.basePath, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", what, err)
	}
	return nil
}

// SaveSession stores sess. method records how it was obtained ("login" or
// "refresh").
func (s *Storage) SaveSession(sess client.Session, baseURL, method string) error {
	return s.writeSealed(SessionFile, "session", &StoredSession{
		Session: sess,
		BaseURL: baseURL,
		SavedAt: time.Now().Unix(),
		Method:  method,
	})
}

// LoadSession returns nil, nil when no session has been saved.
func (s *Storage) LoadSession() (*StoredSession, error) {
	var stored StoredSession
	found, err := s.readSealed(SessionFile, "session", &stored)
	if err != nil || !found {
		return nil, err
	}
	return &stored, nil
}

func (s *Storage) HasSession() bool {
	_, err := os.Stat(filepath.Join(s.basePath, SessionFile))
	return err == nil
}

func (s *Storage) DeleteSession() error {
	return s.remove(SessionFile, "session")
}

func (s *Storage) GetBasePath() string {
	return s.basePath
}

func (s *Storage) SaveCredentials(clientID, secretID string) error {
	return s.writeSealed(CredentialsFile, "credentials", &StoredCredentials{
		ClientID: clientID,
		SecretID: secretID,
	})
}

// LoadCredentials returns nil, nil when no credentials have been saved.
func (s *Storage) LoadCredentials() (*StoredCredentials, error) {
	var creds StoredCredentials
	found, err := s.readSealed(CredentialsFile, "credentials", &creds)
	if err != nil || !found {
		return nil, err
	}
	return &creds, nil
}

func (s *Storage) HasCredentials() bool {
	_, err := os.Stat(filepath.Join(s.basePath, CredentialsFile))
	return err == nil
}

func (s *Storage) DeleteCredentials() error {
	return s.remove(CredentialsFile, "credentials")
}
