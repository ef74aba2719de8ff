// Package fetcher retrieves lab report documents by reference. A reference is
// a local path, an http(s) URL, or an ftp URL; the scheme picks the backend.
package fetcher

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads one document and returns its raw bytes as a stream.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Multi routes a reference to the backend matching its scheme.
type Multi struct {
	local Fetcher
	http  Fetcher
	ftp   Fetcher
}

// NewMulti builds a Multi from the standard backends.
func NewMulti(httpF, ftpF Fetcher) *Multi {
	return &Multi{local: &LocalFetcher{}, http: httpF, ftp: ftpF}
}

func (m *Multi) Fetch(ctx context.Context, ref string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return m.http.Fetch(ctx, ref)
	case strings.HasPrefix(ref, "ftp://"):
		return m.ftp.Fetch(ctx, ref)
	default:
		return m.local.Fetch(ctx, ref)
	}
}

// LocalFetcher reads documents from the local filesystem.
type LocalFetcher struct{}

func (l *LocalFetcher) Fetch(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	return f, nil
}

// ReadAll fetches a reference and drains it into memory.
func ReadAll(ctx context.Context, f Fetcher, ref string) ([]byte, error) {
	rc, err := f.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read %s", ref)
	}
	return data, nil
}
