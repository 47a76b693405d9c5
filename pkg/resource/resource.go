// pkg/resource/resource.go
package resource

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/NivBraz/wordfreq/pkg/fetcher"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/xi2/xz"
	"golang.org/x/text/encoding/htmlindex"
)

var (
	// ErrNotFound means the location does not resolve to anything.
	ErrNotFound = errors.New("resource not found")
	// ErrUnreadable means the location exists but cannot be read as a file.
	ErrUnreadable = errors.New("resource not readable")
)

// Error records the operation and location of a failed resource access.
type Error struct {
	Op       string
	Location string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Location, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Decompression modes.
const (
	DecompressAuto = "auto"
	DecompressNone = "none"
	DecompressGzip = "gzip"
	DecompressZstd = "zstd"
	DecompressXz   = "xz"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// Fetcher retrieves remote resources.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Options struct {
	// Encoding is a WHATWG encoding label. Empty means utf-8.
	Encoding string
	// Decompress is one of the Decompress* modes. Empty means auto.
	Decompress string
	// Fetcher is required for http and https locations.
	Fetcher Fetcher
}

// Resource is an opened input stream, already decompressed and transcoded
// to UTF-8 where requested.
type Resource struct {
	io.Reader

	Location string
	// Size is the number of bytes Read will return, or -1 when unknown.
	Size int64

	closers []io.Closer
}

// Close releases every layer of the resource, innermost last.
func (r *Resource) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// IsRemote reports whether location is fetched over HTTP.
func IsRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ValidEncoding reports whether label names an encoding Open understands.
func ValidEncoding(label string) bool {
	if label == "" {
		return true
	}
	_, err := htmlindex.Get(label)
	return err == nil
}

// Open resolves location and returns a reader over its text.
func Open(ctx context.Context, location string, opts Options) (*Resource, error) {
	res := &Resource{Location: location, Size: -1}

	var raw io.Reader
	if IsRemote(location) {
		body, err := fetchRemote(ctx, location, opts.Fetcher)
		if err != nil {
			return nil, err
		}
		raw = bytes.NewReader(body)
		res.Size = int64(len(body))
	} else {
		f, size, err := openLocal(location)
		if err != nil {
			return nil, err
		}
		res.closers = append(res.closers, f)
		raw = f
		res.Size = size
	}

	r, transformed, err := decompress(raw, opts.Decompress, res)
	if err != nil {
		res.Close()
		return nil, &Error{Op: "decompress", Location: location, Err: err}
	}
	if transformed {
		res.Size = -1
	}

	r, transformed, err = decode(r, opts.Encoding)
	if err != nil {
		res.Close()
		return nil, &Error{Op: "decode", Location: location, Err: err}
	}
	if transformed {
		res.Size = -1
	}

	res.Reader = r
	return res, nil
}

// OpenFile opens path on the local filesystem as-is, without fetching,
// decompression or transcoding. Failures wrap ErrNotFound or ErrUnreadable.
func OpenFile(path string) (*Resource, error) {
	f, size, err := openLocal(path)
	if err != nil {
		return nil, err
	}
	return &Resource{Reader: f, Location: path, Size: size, closers: []io.Closer{f}}, nil
}

func openLocal(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, 0, &Error{Op: "open", Location: path, Err: ErrNotFound}
		case errors.Is(err, fs.ErrPermission):
			return nil, 0, &Error{Op: "open", Location: path, Err: fmt.Errorf("%w: %v", ErrUnreadable, err)}
		}
		return nil, 0, &Error{Op: "open", Location: path, Err: fmt.Errorf("%w: %v", ErrUnreadable, err)}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, &Error{Op: "stat", Location: path, Err: fmt.Errorf("%w: %v", ErrUnreadable, err)}
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, &Error{Op: "open", Location: path, Err: fmt.Errorf("%w: is a directory", ErrUnreadable)}
	}

	return f, info.Size(), nil
}

func fetchRemote(ctx context.Context, url string, f Fetcher) ([]byte, error) {
	if f == nil {
		return nil, &Error{Op: "fetch", Location: url, Err: errors.New("no fetcher configured for remote resources")}
	}

	body, err := f.Fetch(ctx, url)
	if err != nil {
		var statusErr *fetcher.StatusError
		if errors.As(err, &statusErr) &&
			(statusErr.Code == http.StatusNotFound || statusErr.Code == http.StatusGone) {
			return nil, &Error{Op: "fetch", Location: url, Err: fmt.Errorf("%w: %v", ErrNotFound, err)}
		}
		return nil, &Error{Op: "fetch", Location: url, Err: err}
	}
	return body, nil
}

func decompress(r io.Reader, mode string, res *Resource) (io.Reader, bool, error) {
	if mode == "" {
		mode = DecompressAuto
	}

	if mode == DecompressAuto {
		br := bufio.NewReader(r)
		r = br
		mode = sniff(br)
	}

	switch mode {
	case DecompressNone:
		return r, false, nil
	case DecompressGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, false, fmt.Errorf("gzip: %w", err)
		}
		res.closers = append(res.closers, zr)
		return zr, true, nil
	case DecompressZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, false, fmt.Errorf("zstd: %w", err)
		}
		rc := zr.IOReadCloser()
		res.closers = append(res.closers, rc)
		return rc, true, nil
	case DecompressXz:
		xr, err := xz.NewReader(r, xz.DefaultDictMax)
		if err != nil {
			return nil, false, fmt.Errorf("xz: %w", err)
		}
		return xr, true, nil
	default:
		return nil, false, fmt.Errorf("unknown decompression mode %q", mode)
	}
}

// sniff peeks at the stream header without consuming it.
func sniff(br *bufio.Reader) string {
	head, _ := br.Peek(len(xzMagic))
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return DecompressGzip
	case bytes.HasPrefix(head, zstdMagic):
		return DecompressZstd
	case bytes.HasPrefix(head, xzMagic):
		return DecompressXz
	}
	return DecompressNone
}

func decode(r io.Reader, label string) (io.Reader, bool, error) {
	if label == "" {
		return r, false, nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, false, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		// The counter validates UTF-8 itself so malformed input surfaces
		// as an error instead of replacement characters.
		return r, false, nil
	}
	return enc.NewDecoder().Reader(r), true, nil
}
