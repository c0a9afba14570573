// Package storage keeps payment proof screenshots in a Firebase Storage bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/josealejferFB/krizo-backend/internal/logger"
	"google.golang.org/api/option"
)

// MaxProofBytes caps a single screenshot upload.
const MaxProofBytes = 5 << 20

var (
	ErrTooLarge    = errors.New("proof image too large")
	ErrUnsupported = errors.New("unsupported proof image type")
)

var allowedTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

type GCSProofStore struct {
	client *storage.Client
	bucket string
	log    logger.ILogger
}

// NewGCSProofStore uses credentialsFile when set and application default credentials otherwise.
func NewGCSProofStore(ctx context.Context, bucket, credentialsFile string, log logger.ILogger) (*GCSProofStore, error) {
	if bucket == "" {
		return nil, errors.New("STORAGE_BUCKET is not set")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSProofStore{client: client, bucket: bucket, log: log}, nil
}

// Save stores the image under payments/<uid>/ and returns a tokenized download URL.
func (s *GCSProofStore) Save(ctx context.Context, uid string, data []byte) (string, error) {
	ext, err := DetectImage(data)
	if err != nil {
		return "", err
	}
	objectPath := ObjectPath(uid, uuid.NewString()+ext)
	token := uuid.NewString()

	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = http.DetectContentType(data)
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	s.log.Info("payment proof stored", logger.String("uid", uid), logger.String("object", objectPath), logger.Int("bytes", len(data)))
	return DownloadURL(s.bucket, objectPath, token), nil
}

func (s *GCSProofStore) Close() error {
	return s.client.Close()
}

// ReadLimited reads r fully, failing with ErrTooLarge past MaxProofBytes.
func ReadLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxProofBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxProofBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// DetectImage sniffs the payload and returns the file extension for accepted formats.
func DetectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrUnsupported
	}
	if len(data) > MaxProofBytes {
		return "", ErrTooLarge
	}
	ct := http.DetectContentType(data)
	ext, ok := allowedTypes[ct]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ct)
	}
	return ext, nil
}

func ObjectPath(uid, name string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(uid)
	return path.Join("payments", safe, name)
}

func DownloadURL(bucket, objectPath, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(objectPath), token)
}
