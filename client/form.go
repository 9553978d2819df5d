package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how many leading bytes are read to detect a blob's content type.
const sniffLen = 3072

// FormValue is one node of a nested form: Scalar, Fields or *Blob.
type FormValue interface {
	formValue()
}

// Scalar is a leaf value, already rendered as text.
type Scalar string

// Field is a keyed FormValue. A nil Value is never encoded.
type Field struct {
	Key   string
	Value FormValue
}

// Fields is an ordered nested group. Its children are encoded as prefix[key].
type Fields []Field

// Blob is binary content appended as a file part directly under its key.
type Blob struct {
	Filename string
	Reader   io.Reader
}

func (Scalar) formValue() {}
func (Fields) formValue() {}
func (*Blob) formValue()  {}

// multipartBody is a form streamed through a pipe as the transport reads it.
// size is -1 when some blob's length is unknown.
type multipartBody struct {
	reader      *io.PipeReader
	contentType string
	name        string
	size        int64
}

// formEntry is one flattened part: a scalar value or a sniffed blob.
type formEntry struct {
	key   string
	value string
	blob  *sniffedBlob
}

type sniffedBlob struct {
	filename    string
	contentType string
	head        []byte
	rest        io.Reader
	size        int64
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeMultipart flattens media, first under input_media, then fields
// depth-first. Blobs are sniffed here; their contents are only copied once
// the returned body is read.
func encodeMultipart(media *Blob, fields Fields) (*multipartBody, error) {
	if media == nil || media.Reader == nil {
		return nil, fmt.Errorf("media is required")
	}

	first, err := sniffBlob(inputMediaField, media)
	if err != nil {
		return nil, err
	}
	entries := []formEntry{{key: inputMediaField, blob: first}}
	if entries, err = flattenFields(entries, "", fields); err != nil {
		return nil, err
	}

	boundary, size, err := measure(entries)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)
	if err := w.SetBoundary(boundary); err != nil {
		return nil, fmt.Errorf("failed to set boundary: %w", err)
	}
	go func() {
		err := writeEntries(w, entries, true)
		if err == nil {
			err = w.Close()
		}
		pw.CloseWithError(err)
	}()

	return &multipartBody{
		reader:      pr,
		contentType: w.FormDataContentType(),
		name:        media.Filename,
		size:        size,
	}, nil
}

func flattenFields(entries []formEntry, prefix string, fields Fields) ([]formEntry, error) {
	var err error
	for _, f := range fields {
		if entries, err = flattenValue(entries, fieldKey(prefix, f.Key), f.Value); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func flattenValue(entries []formEntry, key string, v FormValue) ([]formEntry, error) {
	switch v := v.(type) {
	case nil:
		return entries, nil
	case Scalar:
		return append(entries, formEntry{key: key, value: string(v)}), nil
	case Fields:
		return flattenFields(entries, key, v)
	case *Blob:
		if v == nil || v.Reader == nil {
			return entries, nil
		}
		b, err := sniffBlob(key, v)
		if err != nil {
			return nil, err
		}
		return append(entries, formEntry{key: key, blob: b}), nil
	default:
		return nil, fmt.Errorf("unsupported form value %T for %s", v, key)
	}
}

// sniffBlob reads the leading bytes of b to detect its content type. The
// size is taken before reading.
func sniffBlob(key string, b *Blob) (*sniffedBlob, error) {
	size := readerSize(b.Reader)

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(b.Reader, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	head = head[:n]

	return &sniffedBlob{
		filename:    b.Filename,
		contentType: mimetype.Detect(head).String(),
		head:        head,
		rest:        b.Reader,
		size:        size,
	}, nil
}

// readerSize reports the bytes left in r, or -1 when r cannot tell.
func readerSize(r io.Reader) int64 {
	switch v := r.(type) {
	case interface{ Len() int }:
		return int64(v.Len())
	case interface{ Stat() (fs.FileInfo, error) }:
		info, err := v.Stat()
		if err != nil || !info.Mode().IsRegular() {
			return -1
		}
		size := info.Size()
		if seeker, ok := r.(io.Seeker); ok {
			if offset, err := seeker.Seek(0, io.SeekCurrent); err == nil {
				size -= offset
			}
		}
		return size
	}
	return -1
}

// measure writes the form skeleton, without blob contents, to learn the
// boundary and the total encoded size.
func measure(entries []formEntry) (string, int64, error) {
	var counter countingWriter
	w := multipart.NewWriter(&counter)
	if err := writeEntries(w, entries, false); err != nil {
		return "", 0, err
	}
	if err := w.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	size := counter.n
	for _, e := range entries {
		if e.blob == nil {
			continue
		}
		if e.blob.size < 0 {
			return w.Boundary(), -1, nil
		}
		size += e.blob.size
	}
	return w.Boundary(), size, nil
}

func writeEntries(w *multipart.Writer, entries []formEntry, withContent bool) error {
	for _, e := range entries {
		if e.blob == nil {
			if err := w.WriteField(e.key, e.value); err != nil {
				return err
			}
			continue
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(e.key), quoteEscaper.Replace(e.blob.filename)))
		h.Set("Content-Type", e.blob.contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return fmt.Errorf("failed to create part %s: %w", e.key, err)
		}
		if !withContent {
			continue
		}
		if _, err := io.Copy(part, io.MultiReader(bytes.NewReader(e.blob.head), e.blob.rest)); err != nil {
			return fmt.Errorf("failed to write %s: %w", e.key, err)
		}
	}
	return nil
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

func fieldKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "[" + key + "]"
}
