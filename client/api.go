package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// request describes one exchange with the API. path is relative to the base
// URL and already escaped.
type request struct {
	method   string
	path     string
	query    url.Values
	body     any
	noBearer bool
	accept   string
}

// do performs req and decodes a JSON response into dest. A nil dest discards
// the body.
func (c *Client) do(ctx context.Context, req request, dest any) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response from %s: %w", req.path, err)
	}
	return nil
}

// send performs req and returns the response when its status is below 300.
// The caller owns the response body. Transport errors are returned as-is.
func (c *Client) send(ctx context.Context, req request) (*http.Response, error) {
	body, contentType, length, err := c.encodeBody(req.body)
	if err != nil {
		return nil, err
	}

	target := c.baseURL.JoinPath(req.path)
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), body)
	if err != nil {
		if closer, ok := body.(io.Closer); ok {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		httpReq.ContentLength = length
	}

	requestID := uuid.NewString()
	c.setHeaders(httpReq, req, contentType, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("api request failed",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, err
	}

	c.logger.Debug("api request",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, &StatusError{
			Method:     req.method,
			Path:       req.path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	return resp, nil
}

func (c *Client) setHeaders(httpReq *http.Request, req request, contentType, requestID string) {
	for key, values := range c.headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-Id", requestID)

	accept := req.accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	if !req.noBearer {
		httpReq.Header.Set("Authorization", "Bearer "+c.token())
	}
}

// encodeBody streams multipart bodies and JSON-encodes anything else. A
// length of -1 means unknown and the body is sent chunked.
func (c *Client) encodeBody(body any) (io.Reader, string, int64, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", 0, nil
	case *multipartBody:
		if c.progress == nil {
			return b.reader, b.contentType, b.size, nil
		}
		r := progressReadCloser{
			progressReader: &progressReader{
				reader: b.reader,
				total:  b.size,
				onProg: func(read, total int64) {
					c.progress.Report(ProgressReport{
						Type:       ProgressUpload,
						Step:       StepUpload,
						Name:       b.name,
						BytesSent:  read,
						TotalBytes: total,
					})
				},
			},
			closer: b.reader,
		}
		return r, b.contentType, b.size, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", int64(len(data)), nil
	}
}
