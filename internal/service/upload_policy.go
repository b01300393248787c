package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/noah-isme/physics-portal-api/internal/models"
	appErrors "github.com/noah-isme/physics-portal-api/pkg/errors"
	"github.com/noah-isme/physics-portal-api/pkg/storage"
)

// Storage folders of uploaded PDFs.
const (
	FolderLessons      = "lessons"
	FolderExams        = "exams"
	FolderSolutions    = "solutions"
	FolderBac          = "bac"
	FolderBacSolutions = "bac-solutions"
)

const defaultMaxUploadBytes = 10 * 1024 * 1024

type objectPutter interface {
	Put(folder, filename string, r io.Reader) (storage.Object, error)
}

type fileDiscarder interface {
	Discard(urls ...string)
}

type catalogInvalidator interface {
	Invalidate(ctx context.Context)
}

// UploadPolicy bounds accepted files.
type UploadPolicy struct {
	MaxBytes     int64
	AllowedMIMEs []string
}

type pdfUploader struct {
	store    objectPutter
	maxBytes int64
	mimes    map[string]struct{}
	metrics  *MetricsService
}

func newPDFUploader(store objectPutter, policy UploadPolicy, metrics *MetricsService) *pdfUploader {
	if policy.MaxBytes <= 0 {
		policy.MaxBytes = defaultMaxUploadBytes
	}
	if len(policy.AllowedMIMEs) == 0 {
		policy.AllowedMIMEs = []string{"application/pdf"}
	}
	mimes := make(map[string]struct{}, len(policy.AllowedMIMEs))
	for _, mt := range policy.AllowedMIMEs {
		mimes[strings.ToLower(strings.TrimSpace(mt))] = struct{}{}
	}
	return &pdfUploader{store: store, maxBytes: policy.MaxBytes, mimes: mimes, metrics: metrics}
}

// put checks the declared size and the sniffed type of up, then stores it
// and returns its public URL.
func (u *pdfUploader) put(folder string, up *models.Upload) (string, error) {
	if up == nil || up.Body == nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if up.Size > u.maxBytes {
		return "", appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes limit", u.maxBytes))
	}

	body := bufio.NewReader(up.Body)
	head, err := body.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect file")
	}
	if len(head) == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "empty file")
	}
	if !u.declared(up.ContentType) || !u.accepts(http.DetectContentType(head)) {
		return "", appErrors.Clone(appErrors.ErrUnsupportedMedia, "only PDF files are accepted")
	}

	obj, err := u.store.Put(folder, up.Filename, &cappedReader{r: body, left: u.maxBytes})
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return "", appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes limit", u.maxBytes))
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}
	u.metrics.ObserveUpload(obj.Size)
	return obj.URL, nil
}

// declared lets generic client types through so the sniffed type decides.
func (u *pdfUploader) declared(contentType string) bool {
	if contentType == "" || contentType == "application/octet-stream" {
		return true
	}
	return u.accepts(contentType)
}

func (u *pdfUploader) accepts(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	_, ok := u.mimes[strings.ToLower(mt)]
	return ok
}

// cappedReader fails with storage.ErrTooLarge once more than left bytes
// were read, so undeclared sizes are still bounded.
type cappedReader struct {
	r    io.Reader
	left int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.left < 0 {
		return 0, storage.ErrTooLarge
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return n, storage.ErrTooLarge
	}
	return n, err
}
