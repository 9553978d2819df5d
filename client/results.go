package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Representation selects how GetResultFile hands back a result.
type Representation string

const (
	// RepresentationBlob buffers the payload with its content type. It is
	// available on every client.
	RepresentationBlob Representation = "blob"
	// RepresentationBuffer buffers the raw payload. Needs a filesystem.
	RepresentationBuffer Representation = "buffer"
	// RepresentationStream returns the open body. Needs a filesystem.
	RepresentationStream Representation = "stream"
)

// ResultFile is a downloaded result. Data is set for Blob and Buffer, Body
// for Stream; the caller must close Body.
type ResultFile struct {
	Filename      string
	ContentType   string
	ContentLength int64
	Data          []byte
	Body          io.ReadCloser
}

// GetResultFile downloads a result file named by a job status response.
func (c *Client) GetResultFile(ctx context.Context, filename string, rep Representation) (*ResultFile, error) {
	switch rep {
	case RepresentationBlob:
	case RepresentationBuffer, RepresentationStream:
		if !c.fsCapable {
			return nil, unsupported(fmt.Sprintf("GetResultFile(%s)", rep))
		}
	default:
		return nil, fmt.Errorf("unknown result representation %q", rep)
	}

	resp, err := c.fetchResult(ctx, filename)
	if err != nil {
		return nil, err
	}

	result := &ResultFile{
		Filename:      filename,
		ContentLength: resp.ContentLength,
	}
	if rep == RepresentationBlob {
		result.ContentType = resp.Header.Get("Content-Type")
	}

	body := c.trackDownload(filename, resp)
	if rep == RepresentationStream {
		result.Body = body
		return result, nil
	}

	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read result %s: %w", filename, err)
	}
	result.Data = data
	return result, nil
}

// SaveResultFile streams a result file to outputPath, creating or
// overwriting it. Needs a filesystem.
func (c *Client) SaveResultFile(ctx context.Context, filename, outputPath string) error {
	if !c.fsCapable {
		return unsupported("SaveResultFile")
	}

	resp, err := c.fetchResult(ctx, filename)
	if err != nil {
		return err
	}
	body := c.trackDownload(filename, resp)
	defer body.Close()

	out, err := c.fs.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}

	if _, err := io.Copy(out, body); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", outputPath, err)
	}
	return nil
}

func (c *Client) fetchResult(ctx context.Context, filename string) (*http.Response, error) {
	return c.send(ctx, request{
		method: http.MethodGet,
		path:   resultPath + url.PathEscape(filename),
		accept: "*/*",
	})
}

func (c *Client) trackDownload(filename string, resp *http.Response) io.ReadCloser {
	if c.progress == nil {
		return resp.Body
	}
	total := resp.ContentLength
	return progressReadCloser{
		progressReader: &progressReader{
			reader: resp.Body,
			total:  total,
			onProg: func(read, total int64) {
				c.progress.Report(ProgressReport{
					Type:       ProgressDownload,
					Step:       StepDownload,
					Name:       filename,
					BytesSent:  read,
					TotalBytes: total,
				})
			},
		},
		closer: resp.Body,
	}
}
