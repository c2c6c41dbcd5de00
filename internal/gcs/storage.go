package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// DefaultUploadTimeout bounds a single upload.
const DefaultUploadTimeout = 2 * time.Minute

// GCSStorageService is the Cloud Storage implementation of StorageService.
// Reads are capped at MaxObjectBytes so an oversized statement is rejected
// instead of being loaded whole.
type GCSStorageService struct {
	client         *storage.Client
	MaxObjectBytes int64
}

// NewGCSStorageService creates a storage client. It uses Application Default
// Credentials unless credentialsFile is set.
func NewGCSStorageService(ctx context.Context, credentialsFile string, maxObjectBytes int64) (*GCSStorageService, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStorageService: create storage client: %w", err)
	}

	return &GCSStorageService{client: client, MaxObjectBytes: maxObjectBytes}, nil
}

// Close releases the underlying client.
func (s *GCSStorageService) Close() error {
	return s.client.Close()
}

// UploadFile uploads a local file to a GCS bucket under the given object name.
func (s *GCSStorageService) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("UploadFile: open file %q: %w", filePath, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, DefaultUploadTimeout)
	defer cancel()

	w := s.client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("UploadFile: copy file to GCS writer: %w", err)
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("UploadFile: finalize upload: %w", err)
	}

	return nil
}

// FetchFromGCS downloads the object bytes for a gs:// URI.
func (s *GCSStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := ParseGCSURI(gcsURI)
	if err != nil {
		return nil, err
	}

	rc, err := s.client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	if s.MaxObjectBytes > 0 && rc.Attrs.Size > s.MaxObjectBytes {
		return nil, fmt.Errorf("FetchFromGCS: object %s is %d bytes, limit is %d: %w", gcsURI, rc.Attrs.Size, s.MaxObjectBytes, ErrObjectTooLarge)
	}

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading bytes: %w", err)
	}

	return data, nil
}

// ExtractFilenameFromGCSURI implements StorageService.
func (s *GCSStorageService) ExtractFilenameFromGCSURI(uri string) string {
	return ExtractFilenameFromGCSURI(uri)
}

var _ StorageService = (*GCSStorageService)(nil)

var (
	// ErrObjectNotExist is returned (wrapped) when the object is missing.
	ErrObjectNotExist = storage.ErrObjectNotExist

	// ErrObjectTooLarge is returned when the object exceeds MaxObjectBytes.
	ErrObjectTooLarge = errors.New("object too large")
)
