package resource

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NivBraz/wordfreq/pkg/fetcher"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const sample = "the quick fox\nthe lazy fox\n"

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func readAll(t *testing.T, res *Resource) string {
	t.Helper()
	defer res.Close()
	b, err := io.ReadAll(res)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return string(b)
}

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func zstdBytes(t *testing.T, s string) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	defer enc.Close()
	return enc.EncodeAll([]byte(s), nil)
}

func TestOpen_Local(t *testing.T) {
	path := writeFile(t, "plain.txt", []byte(sample))

	res, err := Open(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if res.Size != int64(len(sample)) {
		t.Errorf("Size = %d, want %d", res.Size, len(sample))
	}
	if got := readAll(t, res); got != sample {
		t.Errorf("content = %q, want %q", got, sample)
	}
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		location string
		opts     Options
		wantErr  error
	}{
		{"missing file", filepath.Join(dir, "missing.txt"), Options{}, ErrNotFound},
		{"directory", dir, Options{}, ErrUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.location, tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Open() error = %v, want %v", err, tt.wantErr)
			}
			var resErr *Error
			if !errors.As(err, &resErr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if resErr.Location != tt.location {
				t.Errorf("Location = %q, want %q", resErr.Location, tt.location)
			}
		})
	}
}

func TestOpenFile(t *testing.T) {
	gz := gzipBytes(t, sample)
	path := writeFile(t, "plain.txt.gz", gz)

	res, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	if got := readAll(t, res); got != string(gz) {
		t.Error("OpenFile() should return the file bytes untouched")
	}

	tests := []struct {
		name     string
		location string
		wantErr  error
	}{
		{"url is a path", "https://example.invalid/words.txt", ErrNotFound},
		{"missing file", filepath.Join(t.TempDir(), "missing.txt"), ErrNotFound},
		{"directory", t.TempDir(), ErrUnreadable},
		{"file used as directory", filepath.Join(path, "child"), ErrUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := OpenFile(tt.location); !errors.Is(err, tt.wantErr) {
				t.Errorf("OpenFile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpen_Decompress(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		mode    string
	}{
		{"gzip auto", gzipBytes(t, sample), DecompressAuto},
		{"gzip explicit", gzipBytes(t, sample), DecompressGzip},
		{"zstd auto", zstdBytes(t, sample), ""},
		{"zstd explicit", zstdBytes(t, sample), DecompressZstd},
		{"plain auto", []byte(sample), DecompressAuto},
		{"plain none", []byte(sample), DecompressNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "input", tt.content)
			res, err := Open(context.Background(), path, Options{Decompress: tt.mode})
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if got := readAll(t, res); got != sample {
				t.Errorf("content = %q, want %q", got, sample)
			}
		})
	}
}

func TestOpen_DecompressMismatch(t *testing.T) {
	path := writeFile(t, "plain.txt", []byte(sample))
	if _, err := Open(context.Background(), path, Options{Decompress: DecompressGzip}); err == nil {
		t.Error("expected error opening plain text as gzip")
	}
	if _, err := Open(context.Background(), path, Options{Decompress: "bzip2"}); err == nil {
		t.Error("expected error for unknown decompression mode")
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want string
	}{
		{"gzip", []byte{0x1f, 0x8b, 0x08, 0x00}, DecompressGzip},
		{"zstd", []byte{0x28, 0xb5, 0x2f, 0xfd, 0x00}, DecompressZstd},
		{"xz", []byte{0xfd, '7', 'z', 'X', 'Z', 0x00, 0x00}, DecompressXz},
		{"text", []byte("hello world"), DecompressNone},
		{"short", []byte("h"), DecompressNone},
		{"empty", nil, DecompressNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sniff(bufio.NewReader(bytes.NewReader(tt.head))); got != tt.want {
				t.Errorf("sniff() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpen_Encoding(t *testing.T) {
	path := writeFile(t, "latin1.txt", []byte("caf\xe9 na\xefve caf\xe9\n"))

	res, err := Open(context.Background(), path, Options{Encoding: "latin1"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if res.Size != -1 {
		t.Errorf("Size = %d, want -1 for transcoded input", res.Size)
	}
	if got, want := readAll(t, res), "café naïve café\n"; got != want {
		t.Errorf("content = %q, want %q", got, want)
	}

	// utf-8 passes bytes through untouched so invalid input can be reported.
	res, err = Open(context.Background(), path, Options{Encoding: "UTF-8"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := readAll(t, res); got != "caf\xe9 na\xefve caf\xe9\n" {
		t.Errorf("utf-8 content was modified: %q", got)
	}

	if _, err := Open(context.Background(), path, Options{Encoding: "klingon"}); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestValidEncoding(t *testing.T) {
	for label, want := range map[string]bool{
		"":             true,
		"utf-8":        true,
		"latin1":       true,
		"windows-1252": true,
		"shift_jis":    true,
		"klingon":      false,
	} {
		if got := ValidEncoding(label); got != want {
			t.Errorf("ValidEncoding(%q) = %v, want %v", label, got, want)
		}
	}
}

func TestIsRemote(t *testing.T) {
	for location, want := range map[string]bool{
		"http://example.com/a.txt":  true,
		"HTTPS://example.com/a.txt": true,
		"/tmp/a.txt":                false,
		"a.txt":                     false,
		"ftp://example.com/a.txt":   false,
	} {
		if got := IsRemote(location); got != want {
			t.Errorf("IsRemote(%q) = %v, want %v", location, got, want)
		}
	}
}

func TestOpen_Remote(t *testing.T) {
	compressed := gzipBytes(t, sample)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/plain.txt":
			io.WriteString(w, sample)
		case "/plain.txt.gz":
			w.Write(compressed)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	opts := Options{Fetcher: fetcher.New(fetcher.FetcherConfig{
		RequestsPerSecond: 100,
		Burst:             10,
		Timeout:           5 * time.Second,
	})}

	for _, path := range []string{"/plain.txt", "/plain.txt.gz"} {
		res, err := Open(context.Background(), server.URL+path, opts)
		if err != nil {
			t.Fatalf("Open(%s) error = %v", path, err)
		}
		if got := readAll(t, res); got != sample {
			t.Errorf("Open(%s) content = %q, want %q", path, got, sample)
		}
	}

	_, err := Open(context.Background(), server.URL+"/missing.txt", opts)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Open(missing) error = %v, want ErrNotFound", err)
	}
}

func TestOpen_RemoteWithoutFetcher(t *testing.T) {
	_, err := Open(context.Background(), "https://example.com/a.txt", Options{})
	if err == nil || !strings.Contains(err.Error(), "no fetcher") {
		t.Errorf("Open() error = %v, want missing fetcher error", err)
	}
}
