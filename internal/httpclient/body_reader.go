package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// BodySource produces a fresh request body for every operation.
type BodySource interface {
	NewReader() (io.ReadCloser, error)
	ContentLength() (int64, bool)
}

// NewBodySource returns a source for an inline body. A body of the form
// "@path" streams the named file instead.
func NewBodySource(body string) (BodySource, error) {
	if body == "" {
		return emptyBodySource{}, nil
	}
	if path, ok := strings.CutPrefix(body, "@"); ok && strings.TrimSpace(path) != "" {
		path = strings.TrimSpace(path)
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("body file: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("body file %q is a directory", path)
		}
		return &fileBodySource{path: path, size: info.Size()}, nil
	}
	return &inlineBodySource{data: []byte(body)}, nil
}

type inlineBodySource struct {
	data []byte
}

func (s *inlineBodySource) NewReader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *inlineBodySource) ContentLength() (int64, bool) {
	return int64(len(s.data)), true
}

type fileBodySource struct {
	path string
	size int64
}

func (s *fileBodySource) NewReader() (io.ReadCloser, error) {
	return os.Open(s.path)
}

func (s *fileBodySource) ContentLength() (int64, bool) {
	return s.size, true
}

type emptyBodySource struct{}

func (emptyBodySource) NewReader() (io.ReadCloser, error) {
	return http.NoBody, nil
}

func (emptyBodySource) ContentLength() (int64, bool) {
	return 0, true
}
