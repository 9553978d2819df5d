package webhook

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PiotrWarzachowski/go-anonymizer/client"
)

const (
	DefaultPath     = "/"
	shutdownTimeout = 5 * time.Second
)

// Notification is the job update the service posts to a registered webhook.
type Notification struct {
	AnonymizationJobID string           `json:"anonymization_job_id" binding:"required"`
	Status             client.JobStatus `json:"status" binding:"required"`
	OutputMedia        string           `json:"output_media,omitempty"`
	OutputJSON         string           `json:"output_json,omitempty"`
	Error              string           `json:"error,omitempty"`
}

// Handler receives each accepted notification.
type Handler func(ctx context.Context, n Notification)

// Options configures the receiver. An empty Token accepts unauthenticated
// posts.
type Options struct {
	Path   string
	Token  string
	Logger *zap.Logger
}

// NewRouter builds the gin engine serving the webhook endpoint.
func NewRouter(opts Options, handle Handler) *gin.Engine {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		path = DefaultPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST(path, bearerToken(opts.Token), func(c *gin.Context) {
		var n Notification
		if err := c.ShouldBindJSON(&n); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification"})
			return
		}

		logger.Info("job notification",
			zap.String("job_id", n.AnonymizationJobID),
			zap.String("status", string(n.Status)),
		)
		if handle != nil {
			handle(c.Request.Context(), n)
		}
		c.Status(http.StatusNoContent)
	})

	return router
}

func bearerToken(token string) gin.HandlerFunc {
	token = strings.TrimSpace(token)

	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		got, err := extractBearerToken(c.Request.Header.Get("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("token missing")
	}
	return token, nil
}

// Serve runs handler on listener until ctx is done, then shuts down.
func Serve(ctx context.Context, listener net.Listener, handler http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		err := server.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("stopping webhook receiver", zap.String("addr", listener.Addr().String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
