package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ErrTooLarge is returned by Put when the stream exceeds the size limit.
var ErrTooLarge = errors.New("object exceeds size limit")

// ErrInvalidKey is returned when a key escapes the bucket directory.
var ErrInvalidKey = errors.New("invalid object key")

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// Object describes a stored file.
type Object struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// ObjectStore keeps uploaded files on disk under <dir>/<bucket> and exposes
// them through a public base URL.
type ObjectStore struct {
	root      string
	bucket    string
	publicURL string
	maxBytes  int64
	now       func() time.Time
}

// Options configures an ObjectStore.
type Options struct {
	Dir           string
	Bucket        string
	PublicBaseURL string
	MaxBytes      int64
	Now           func() time.Time
}

// NewObjectStore ensures the bucket directory exists and returns a handle.
func NewObjectStore(opts Options) (*ObjectStore, error) {
	if opts.Dir == "" {
		opts.Dir = "./uploads"
	}
	if opts.Bucket == "" {
		opts.Bucket = "content"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	root := filepath.Join(opts.Dir, opts.Bucket)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create bucket directory: %w", err)
	}
	return &ObjectStore{
		root:      root,
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		maxBytes:  opts.MaxBytes,
		now:       opts.Now,
	}, nil
}

// SanitizeName replaces every character outside [a-zA-Z0-9.-] with '_'.
func SanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// ObjectKey builds "<folder>/<unix-ms>-<sanitized name>".
func ObjectKey(folder, filename string, at time.Time) string {
	return fmt.Sprintf("%s/%d-%s", folder, at.UnixMilli(), SanitizeName(filename))
}

// Put streams r into a new object under folder.
func (s *ObjectStore) Put(folder, filename string, r io.Reader) (Object, error) {
	key := ObjectKey(folder, filename, s.now())
	target, err := s.resolve(key)
	if err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Object{}, fmt.Errorf("prepare object directory: %w", err)
	}

	file, err := os.Create(target)
	if err != nil {
		return Object{}, fmt.Errorf("create object: %w", err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	written, copyErr := io.Copy(file, src)
	closeErr := file.Close()
	if copyErr == nil && s.maxBytes > 0 && written > s.maxBytes {
		copyErr = ErrTooLarge
	}
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(target)
		if errors.Is(copyErr, ErrTooLarge) {
			return Object{}, copyErr
		}
		return Object{}, fmt.Errorf("write object: %w", copyErr)
	}

	return Object{Key: key, URL: s.PublicURL(key), Size: written}, nil
}

// PublicURL returns the address clients use to download key.
func (s *ObjectStore) PublicURL(key string) string {
	return s.publicURL + "/" + s.bucket + "/" + key
}

// KeyFromURL recovers the object key from a URL produced by PublicURL.
func (s *ObjectStore) KeyFromURL(url string) (string, bool) {
	prefix := s.publicURL + "/" + s.bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" {
		return "", false
	}
	return key, true
}

// Open returns a read-only handle for the stored object.
func (s *ObjectStore) Open(key string) (*os.File, error) {
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return file, nil
}

// Delete removes an object. Missing objects are not an error.
func (s *ObjectStore) Delete(key string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// Root is the directory holding the bucket's objects.
func (s *ObjectStore) Root() string {
	return s.root
}

func (s *ObjectStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
