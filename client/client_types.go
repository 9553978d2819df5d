package client

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL   = "https://api.anonymization.cloud"
	DefaultUserAgent = "go-anonymizer/0.1"
)

// API routes, relative to the base URL.
const (
	loginPath        = "/login"
	tokenPath        = "/token"
	anonymizePath    = "/innovation-service/anonymization"
	resultPath       = "/innovation-service/result/"
	webhooksListPath = "/webhook-url/get-many"
	webhooksPath     = "/webhook-url"
	webhookTestPath  = "/webhook-url/test/"

	inputMediaField = "input_media"
)

// Client talks to the anonymization API. A Client owns its session and its
// http.Client; separate clients never share either.
type Client struct {
	mu      sync.RWMutex
	session Session

	baseURL   *url.URL
	headers   http.Header
	userAgent string

	httpClient *http.Client
	timeout    time.Duration
	timeoutSet bool
	logger     *zap.Logger
	progress   ProgressReporter

	fs         Filesystem
	fsCapable  bool
	fsExplicit bool
}

// StatusError is returned for any response with a status code of 300 or more.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed: %s", e.Path, e.Status)
}

// ErrUnsupportedOperation is returned, before any request is made, when an
// operation needs a filesystem the client was built without.
var ErrUnsupportedOperation = errors.New("operation not supported without filesystem access")

func unsupported(op string) error {
	return fmt.Errorf("%s: %w", op, ErrUnsupportedOperation)
}
