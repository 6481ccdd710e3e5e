// internal/services/upload_service.go
package services

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/depot-app/depot-backend/internal/config"
	"github.com/depot-app/depot-backend/internal/models"
	"github.com/depot-app/depot-backend/internal/utils"
)

type UploadService struct {
	db    *gorm.DB
	blobs BlobStore
	cfg   *config.Config
}

func NewUploadService(db *gorm.DB, blobs BlobStore, cfg *config.Config) *UploadService {
	return &UploadService{db: db, blobs: blobs, cfg: cfg}
}

// Upload stores a blob and then its metadata row, in that order. A metadata
// failure after a successful blob write leaves an orphan blob, which is
// acceptable; a metadata row without a blob is not, so the blob write always
// happens first.
func (s *UploadService) Upload(actor Actor, originalName string, content []byte, mimeType, ip string) (*models.FileUpload, error) {
	if actor.IsAnonymous() {
		return nil, ErrForbidden
	}

	if int64(len(content)) > s.cfg.Uploads.MaxSizeBytes {
		return nil, &ValidationError{Fields: []utils.FieldError{{
			Field:   "file",
			Tag:     "max",
			Message: fmt.Sprintf("File exceeds the %d byte limit", s.cfg.Uploads.MaxSizeBytes),
		}}}
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if !s.extensionAllowed(ext) {
		return nil, &ValidationError{Fields: []utils.FieldError{{
			Field:   "file",
			Tag:     "extension",
			Message: fmt.Sprintf("File type %q is not allowed", ext),
		}}}
	}

	storedName := GenerateStoredName(originalName)

	path, err := s.blobs.Put(storedName, content, mimeType)
	if err != nil {
		return nil, fmt.Errorf("blob write failed: %w", err)
	}

	upload := &models.FileUpload{
		Filename:         storedName,
		OriginalFilename: originalName,
		FilePath:         path,
		FileSize:         int64(len(content)),
		MimeType:         mimeType,
		OwnerID:          actor.ID,
	}

	actorID := actor.ID
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(upload).Error; err != nil {
			return fmt.Errorf("failed to record upload: %w", err)
		}
		return appendAudit(tx, &actorID, models.ActionUploadFile,
			fmt.Sprintf("File uploaded: %s", SanitizeFilename(originalName)), ip)
	})
	if err != nil {
		// The blob already exists; it is orphaned rather than untracked.
		logrus.WithField("stored_name", storedName).WithError(err).
			Warn("Upload metadata write failed, blob orphaned")
		return nil, err
	}

	return upload, nil
}

// List returns the actor's own uploads, or every upload for an admin,
// newest first.
func (s *UploadService) List(actor Actor) ([]models.FileUpload, error) {
	if actor.IsAnonymous() {
		return nil, ErrForbidden
	}

	query := s.db.Model(&models.FileUpload{}).Order("created_at DESC")
	if !actor.HasRole(models.RoleAdmin) {
		query = query.Where("owner_id = ?", actor.ID)
	} else {
		query = query.Preload("Owner")
	}

	var uploads []models.FileUpload
	if err := query.Find(&uploads).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch uploads: %w", err)
	}

	return uploads, nil
}

// Download maps the metadata id to the stored name and fetches the blob.
// The client never supplies a filename; only the stored name addresses the
// blob store.
func (s *UploadService) Download(actor Actor, id uuid.UUID) (*models.FileUpload, []byte, error) {
	upload, err := s.get(id)
	if err != nil {
		return nil, nil, err
	}

	if !actor.CanModify(upload.OwnerID) {
		return nil, nil, ErrForbidden
	}

	content, err := s.blobs.Get(upload.Filename)
	if err != nil {
		return nil, nil, fmt.Errorf("blob read failed: %w", err)
	}

	return upload, content, nil
}

// Delete removes the blob and then the metadata row. A failed blob removal
// is surfaced as a non-fatal warning while the metadata delete still
// commits: orphan blobs are tolerated, rows pointing at missing blobs are
// not allowed to linger as hard errors.
func (s *UploadService) Delete(actor Actor, id uuid.UUID, ip string) (string, error) {
	upload, err := s.get(id)
	if err != nil {
		return "", err
	}

	if !actor.CanModify(upload.OwnerID) {
		return "", ErrForbidden
	}

	warning := ""
	if err := s.blobs.Delete(upload.Filename); err != nil {
		warning = fmt.Sprintf("stored file %s could not be removed", upload.Filename)
		logrus.WithField("stored_name", upload.Filename).WithError(err).
			Warn("Blob delete failed, orphaning blob")
	}

	actorID := actor.ID
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(upload).Error; err != nil {
			return fmt.Errorf("failed to delete upload record: %w", err)
		}
		return appendAudit(tx, &actorID, models.ActionDeleteFile,
			fmt.Sprintf("File deleted: %s", SanitizeFilename(upload.OriginalFilename)), ip)
	})
	if err != nil {
		return "", err
	}

	return warning, nil
}

func (s *UploadService) get(id uuid.UUID) (*models.FileUpload, error) {
	var upload models.FileUpload
	if err := s.db.First(&upload, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &upload, nil
}

func (s *UploadService) extensionAllowed(ext string) bool {
	for _, allowed := range s.cfg.Uploads.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
