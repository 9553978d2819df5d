package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/PiotrWarzachowski/go-anonymizer/client"
	"github.com/PiotrWarzachowski/go-anonymizer/internal/config"
	"github.com/PiotrWarzachowski/go-anonymizer/internal/storage"
)

// ErrNotLoggedIn means there is no usable session and no credentials to get
// one with.
var ErrNotLoggedIn = errors.New("not logged in")

// JobProvider is the CLI's view of the API: a client plus the stored session
// and credentials behind it.
type JobProvider struct {
	client  *client.Client
	storage *storage.Storage
	cfg     config.Config
	logger  *zap.Logger
	now     func() time.Time
}

// NewJobProvider builds a client from cfg and restores the stored session,
// if any. Extra options are applied after the ones derived from cfg.
func NewJobProvider(cfg config.Config, logger *zap.Logger, opts ...client.Option) (*JobProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := storage.NewSessionStorage(cfg.SessionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session storage: %w", err)
	}

	clientOpts := []client.Option{client.WithLogger(logger)}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, client.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, client.WithTimeout(cfg.Timeout))
	}
	c, err := client.New(append(clientOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	stored, err := store.LoadSession()
	if err != nil {
		logger.Warn("ignoring unreadable stored session", zap.Error(err))
	} else if stored != nil && stored.BaseURL == c.BaseURL() {
		c.SetSession(stored.Session)
	}

	return &JobProvider{
		client:  c,
		storage: store,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (p *JobProvider) Client() *client.Client {
	return p.client
}

func (p *JobProvider) Storage() *storage.Storage {
	return p.storage
}

func (p *JobProvider) Config() config.Config {
	return p.cfg
}

// Login signs in and persists the session. With remember set the
// credentials are stored too, for later re-login.
func (p *JobProvider) Login(ctx context.Context, clientID, secretID string, remember bool) (client.Session, error) {
	s, err := p.client.Login(ctx, clientID, secretID)
	if err != nil {
		return client.Session{}, err
	}
	p.persist(s, "login")

	if remember {
		if err := p.storage.SaveCredentials(clientID, secretID); err != nil {
			return s, fmt.Errorf("failed to save credentials: %w", err)
		}
	}
	return s, nil
}

// Refresh renews the session and persists the result.
func (p *JobProvider) Refresh(ctx context.Context) (client.Session, error) {
	s, err := p.client.Refresh(ctx)
	if err != nil {
		return client.Session{}, err
	}
	p.persist(s, "refresh")
	return s, nil
}

// EnsureSession makes sure the client holds an unexpired session: it
// refreshes an expired one and falls back to logging in with environment or
// stored credentials.
func (p *JobProvider) EnsureSession(ctx context.Context) error {
	current := p.client.Session()
	if !current.Expired(p.now()) {
		return nil
	}

	if current.RefreshToken != "" {
		_, err := p.Refresh(ctx)
		if err == nil {
			return nil
		}
		p.logger.Debug("refresh failed, trying credentials", zap.Error(err))
	}

	clientID, secretID, err := p.credentials()
	if err != nil {
		return err
	}
	_, err = p.Login(ctx, clientID, secretID, false)
	return err
}

func (p *JobProvider) credentials() (string, string, error) {
	if p.cfg.HasEnvCredentials() {
		return p.cfg.ClientID, p.cfg.SecretID, nil
	}
	creds, err := p.storage.LoadCredentials()
	if err != nil {
		return "", "", fmt.Errorf("failed to load credentials: %w", err)
	}
	if creds == nil || creds.ClientID == "" || creds.SecretID == "" {
		return "", "", ErrNotLoggedIn
	}
	return creds.ClientID, creds.SecretID, nil
}

// Logout forgets the local session, and the credentials when clearCredentials
// is set. The service has no logout route.
func (p *JobProvider) Logout(clearCredentials bool) error {
	p.client.SetSession(client.Session{})
	if err := p.storage.DeleteSession(); err != nil {
		return err
	}
	if clearCredentials {
		return p.storage.DeleteCredentials()
	}
	return nil
}

// WaitForJob polls a job every poll interval until it reaches a terminal
// status or ctx ends. onStatus, if set, sees every observation.
func (p *JobProvider) WaitForJob(ctx context.Context, jobID string, onStatus func(*client.JobStatusResponse)) (*client.JobStatusResponse, error) {
	interval := p.cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := p.client.GetJobStatus(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if onStatus != nil {
			onStatus(status)
		}
		if status.Status.Terminal() {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *JobProvider) persist(s client.Session, method string) {
	if err := p.storage.SaveSession(s, p.client.BaseURL(), method); err != nil {
		p.logger.Warn("failed to save session", zap.Error(err))
	}
}
