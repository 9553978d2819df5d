package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
)

type JobStatus string

const (
	StatusSent       JobStatus = "Sent"
	StatusStarted    JobStatus = "Started"
	StatusSucceeded  JobStatus = "Succeeded"
	StatusFailed     JobStatus = "Failed"
	StatusUnknownJob JobStatus = "Unknown job"
	StatusRevoked    JobStatus = "Revoked"
)

// Terminal reports whether a job in this status will not change again.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusRevoked, StatusUnknownJob:
		return true
	}
	return false
}

type CreateJobResponse struct {
	AnonymizationJobID string `json:"anonymization_job_id"`
}

// JobStatusResponse is one observation of a job. OutputMedia and OutputJSON
// name result files for GetResultFile once the job has succeeded.
type JobStatusResponse struct {
	Status      JobStatus `json:"status"`
	OutputMedia string    `json:"output_media,omitempty"`
	OutputJSON  string    `json:"output_json,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// CreateJobFromPath submits the file at path. It needs a filesystem.
func (c *Client) CreateJobFromPath(ctx context.Context, path string, opts *AnonymizationOptions) (*CreateJobResponse, error) {
	if !c.fsCapable {
		return nil, unsupported("CreateJobFromPath")
	}

	f, err := c.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open media: %w", err)
	}
	defer f.Close()

	return c.createJob(ctx, &Blob{Filename: filepath.Base(path), Reader: f}, path, opts)
}

// CreateJobFromBytes submits an in-memory buffer under filename.
func (c *Client) CreateJobFromBytes(ctx context.Context, data []byte, filename string, opts *AnonymizationOptions) (*CreateJobResponse, error) {
	return c.createJob(ctx, &Blob{Filename: filename, Reader: bytes.NewReader(data)}, filename, opts)
}

// CreateJobFromReader submits media read from r under filename.
func (c *Client) CreateJobFromReader(ctx context.Context, r io.Reader, filename string, opts *AnonymizationOptions) (*CreateJobResponse, error) {
	return c.createJob(ctx, &Blob{Filename: filename, Reader: r}, filename, opts)
}

// createJob uploads media. name labels upload progress and may differ from
// the part's filename, e.g. the full path of a local file.
func (c *Client) createJob(ctx context.Context, media *Blob, name string, opts *AnonymizationOptions) (*CreateJobResponse, error) {
	body, err := encodeMultipart(media, opts.FormFields())
	if err != nil {
		return nil, fmt.Errorf("failed to encode job: %w", err)
	}
	body.name = name

	var payload CreateJobResponse
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   anonymizePath,
		body:   body,
	}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetJobStatus fetches the current status of a job. Nothing is cached; every
// call is a round trip.
func (c *Client) GetJobStatus(ctx context.Context, jobID string) (*JobStatusResponse, error) {
	var payload JobStatusResponse
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   anonymizePath,
		query:  url.Values{"anonymization_job_id": {jobID}},
	}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
