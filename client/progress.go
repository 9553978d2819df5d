package client

import "io"

type ProgressType string

const (
	ProgressUpload   ProgressType = "UPLOAD"
	ProgressDownload ProgressType = "DOWNLOAD"
)

const (
	StepUpload   = "UPLOAD"
	StepDownload = "DOWNLOAD"
)

// ProgressReport is the data packet sent from the Client to the UI
type ProgressReport struct {
	Type       ProgressType
	Step       string
	Name       string // media path or filename, or result filename
	BytesSent  int64
	TotalBytes int64 // -1 when the server did not send a length
}

// ProgressReporter is the interface used to "send" updates
type ProgressReporter interface {
	Report(report ProgressReport)
}

type progressReader struct {
	reader io.Reader
	total  int64
	read   int64
	onProg func(read, total int64)
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	pr.read += int64(n)

	if pr.onProg != nil && n > 0 {
		pr.onProg(pr.read, pr.total)
	}
	return n, err
}

type progressReadCloser struct {
	*progressReader
	closer io.Closer
}

func (p progressReadCloser) Close() error {
	return p.closer.Close()
}
