// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/depot-app/depot-backend/internal/config"
)

// BlobStore is the opaque file-storage collaborator. Blobs are addressed
// only by their system-generated stored name, never by anything the client
// supplied.
type BlobStore interface {
	Put(key string, data []byte, contentType string) (string, error)
	Get(key string) ([]byte, error)
	Delete(key string) error
}

// StorageService stores blobs in S3 when AWS credentials are configured and
// on the local filesystem otherwise.
type StorageService struct {
	s3Client *s3.S3
	cfg      *config.Config
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg.AWS.AccessKeyID == "" {
		if err := os.MkdirAll(cfg.Uploads.LocalDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
		return &StorageService{cfg: cfg}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		cfg:      cfg,
	}, nil
}

// Put writes a blob and returns its opaque storage path.
func (s *StorageService) Put(key string, data []byte, contentType string) (string, error) {
	if s.s3Client != nil {
		_, err := s.s3Client.PutObject(&s3.PutObjectInput{
			Bucket:        aws.String(s.cfg.AWS.S3Bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentType:   aws.String(contentType),
			ContentLength: aws.Int64(int64(len(data))),
		})
		if err != nil {
			return "", fmt.Errorf("failed to upload to S3: %w", err)
		}
		return fmt.Sprintf("s3://%s/%s", s.cfg.AWS.S3Bucket, key), nil
	}

	path := filepath.Join(s.cfg.Uploads.LocalDir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

func (s *StorageService) Get(key string) ([]byte, error) {
	if s.s3Client != nil {
		out, err := s.s3Client.GetObject(&s3.GetObjectInput{
			Bucket: aws.String(s.cfg.AWS.S3Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch from S3: %w", err)
		}
		defer out.Body.Close()
		return io.ReadAll(out.Body)
	}

	data, err := os.ReadFile(filepath.Join(s.cfg.Uploads.LocalDir, key))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (s *StorageService) Delete(key string) error {
	if s.s3Client != nil {
		_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
			Bucket: aws.String(s.cfg.AWS.S3Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return fmt.Errorf("failed to delete from S3: %w", err)
		}
		return nil
	}

	if err := os.Remove(filepath.Join(s.cfg.Uploads.LocalDir, key)); err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFilename reduces an untrusted user-supplied name to a safe token.
// The result is only ever used as a suffix of a generated stored name; the
// original name itself is never used to derive a filesystem path.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	return name
}

// GenerateStoredName builds a collision-resistant stored name from a
// timestamp, a random component, and the sanitized original name.
func GenerateStoredName(originalName string) string {
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s", timestamp, uuid.New().String()[:8], SanitizeFilename(originalName))
}
