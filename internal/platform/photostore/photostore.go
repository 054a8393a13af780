// Package photostore provides blob storage for consultation photos. It
// defines the Store interface and two implementations: an in-memory store
// for development and tests, and a local-filesystem store that serves
// photos over HTTP. A stored photo is addressed only by the download URL
// returned at upload time; callers keep those URLs inside consultation
// records and pass them back verbatim to delete the blob.
package photostore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrPhotoNotFound      = errors.New("photo not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrInvalidPath        = errors.New("invalid storage path")
	ErrForeignURL         = errors.New("url does not belong to this store")
)

// MaxPhotoSize is the maximum allowed photo size in bytes (20 MB).
const MaxPhotoSize = 20 * 1024 * 1024

// AllowedContentTypes lists the image MIME types accepted for upload.
var AllowedContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/heic": true,
	"image/gif":  true,
}

// ---------------------------------------------------------------------------
// Store interface
// ---------------------------------------------------------------------------

// Store defines the contract for photo blob storage backends.
type Store interface {
	// Upload stores the content under the given storage path and returns
	// the download URL that from now on identifies the blob.
	Upload(ctx context.Context, storagePath, contentType string, content io.Reader) (string, error)
	// Delete removes the blob identified by a URL previously returned by
	// Upload. Returns ErrPhotoNotFound if no such blob exists.
	Delete(ctx context.Context, url string) error
}

// validatePath rejects empty or traversal-prone storage paths.
func validatePath(storagePath string) error {
	if storagePath == "" || strings.HasPrefix(storagePath, "/") {
		return ErrInvalidPath
	}
	cleaned := path.Clean(storagePath)
	if cleaned != storagePath || strings.Contains(storagePath, "..") {
		return ErrInvalidPath
	}
	return nil
}

func readAllLimited(content io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(content, MaxPhotoSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxPhotoSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

type storedPhoto struct {
	contentType string
	data        []byte
}

// Memory is a thread-safe, in-memory Store for development and tests.
type Memory struct {
	baseURL string
	mu      sync.RWMutex
	photos  map[string]*storedPhoto // keyed by download URL
}

// NewMemory returns a ready-to-use in-memory store. baseURL is the prefix
// of the URLs it hands out (e.g. "memory://photos").
func NewMemory(baseURL string) *Memory {
	return &Memory{
		baseURL: strings.TrimRight(baseURL, "/"),
		photos:  make(map[string]*storedPhoto),
	}
}

func (s *Memory) Upload(_ context.Context, storagePath, contentType string, content io.Reader) (string, error) {
	if err := validatePath(storagePath); err != nil {
		return "", err
	}
	if !AllowedContentTypes[contentType] {
		return "", ErrInvalidContentType
	}

	data, err := readAllLimited(content)
	if err != nil {
		return "", err
	}

	url := s.baseURL + "/" + storagePath

	s.mu.Lock()
	s.photos[url] = &storedPhoto{contentType: contentType, data: data}
	s.mu.Unlock()

	return url, nil
}

func (s *Memory) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.photos[url]; !ok {
		return ErrPhotoNotFound
	}
	delete(s.photos, url)
	return nil
}

// Get returns the stored photo bytes and content type for a URL. Used by
// tests and the development photo-serving route.
func (s *Memory) Get(url string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.photos[url]
	if !ok {
		return nil, "", ErrPhotoNotFound
	}
	return p.data, p.contentType, nil
}

// Len reports the number of stored photos.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.photos)
}

// ---------------------------------------------------------------------------
// Local-filesystem implementation
// ---------------------------------------------------------------------------

// FS stores photos under a root directory and maps them to URLs below a
// base URL. The server exposes the root directory on the path the base URL
// points at, so a returned URL is directly downloadable.
type FS struct {
	root    string
	baseURL string
}

// NewFS creates a filesystem store rooted at dir, handing out URLs below
// baseURL (e.g. "https://clinic.example.com/photos").
func NewFS(dir, baseURL string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo directory %s: %w", dir, err)
	}
	return &FS{
		root:    dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Root returns the directory the store writes into, for static serving.
func (s *FS) Root() string { return s.root }

func (s *FS) Upload(_ context.Context, storagePath, contentType string, content io.Reader) (string, error) {
	if err := validatePath(storagePath); err != nil {
		return "", err
	}
	if !AllowedContentTypes[contentType] {
		return "", ErrInvalidContentType
	}

	data, err := readAllLimited(content)
	if err != nil {
		return "", err
	}

	full := filepath.Join(s.root, filepath.FromSlash(storagePath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create photo subdirectory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write photo %s: %w", storagePath, err)
	}

	return s.baseURL + "/" + storagePath, nil
}

func (s *FS) Delete(_ context.Context, url string) error {
	storagePath, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok {
		return ErrForeignURL
	}
	if err := validatePath(storagePath); err != nil {
		return err
	}

	full := filepath.Join(s.root, filepath.FromSlash(storagePath))
	err := os.Remove(full)
	if errors.Is(err, os.ErrNotExist) {
		return ErrPhotoNotFound
	}
	if err != nil {
		return fmt.Errorf("delete photo %s: %w", storagePath, err)
	}
	return nil
}
