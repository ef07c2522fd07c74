// Package upload implements the document-attach flow: store the binary,
// create the file record, then create the member or tile association.
// The three steps run strictly in order and the first failure aborts the
// rest, reporting a single generic failure to the user.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hivehq/hive-bff/internal/metrics"
	"github.com/hivehq/hive-bff/internal/models"
)

// TargetKind says what the document is being attached to.
type TargetKind string

const (
	// TargetUser attaches via a member-file association.
	TargetUser TargetKind = "user"

	// TargetTile attaches via a tile-file association.
	TargetTile TargetKind = "tile"
)

// ErrInvalidTarget is returned for a target kind other than user or tile.
var ErrInvalidTarget = errors.New("target kind must be user or tile")

// Storage persists the uploaded binary and returns where it landed.
type Storage interface {
	Put(ctx context.Context, filename string, content io.Reader) (url string, providerID string, err error)
}

// Records creates the upstream file record and its association.
type Records interface {
	CreateFile(ctx context.Context, file models.File) (*models.File, error)
	CreateMemberFile(ctx context.Context, memberID, fileID string) error
	CreateTileFile(ctx context.Context, tileID, fileID string) error
}

// Notifier delivers the user-facing outcome. The web client renders these
// as snackbars.
type Notifier interface {
	Success(msg string)
	Failure(msg string)
}

// Request describes one attach operation.
type Request struct {
	TargetID   string
	TargetKind TargetKind
	AccountID  string
	OwnerID    string
	Filename   string
	Content    io.Reader
}

// Uploader runs attach flows.
type Uploader struct {
	storage  Storage
	records  Records
	notifier Notifier
	logger   *slog.Logger
	newID    func() string
}

// NewUploader creates an Uploader. newID generates file-record ids.
func NewUploader(storage Storage, records Records, notifier Notifier, logger *slog.Logger, newID func() string) *Uploader {
	return &Uploader{
		storage:  storage,
		records:  records,
		notifier: notifier,
		logger:   logger,
		newID:    newID,
	}
}

// Attach uploads the binary, creates the file record, and creates the
// association for the target, in that order. Any failure aborts the
// remaining steps, emits one generic failure notification, and returns the
// wrapped cause. The user is not told which step failed.
func (u *Uploader) Attach(ctx context.Context, req Request) (*models.File, error) {
	metrics.Inc(metrics.UploadTotal)

	if req.TargetKind != TargetUser && req.TargetKind != TargetTile {
		return u.fail(fmt.Errorf("%w: %q", ErrInvalidTarget, req.TargetKind))
	}
	if req.Filename == "" {
		return u.fail(errors.New("filename is required"))
	}

	url, providerID, err := u.storage.Put(ctx, req.Filename, req.Content)
	if err != nil {
		return u.fail(fmt.Errorf("storing upload: %w", err))
	}

	record, err := u.records.CreateFile(ctx, models.File{
		ID:                u.newID(),
		Filename:          req.Filename,
		URL:               url,
		StorageProviderID: providerID,
		AccountID:         req.AccountID,
		UserID:            req.OwnerID,
		BlacklistedFamily: []string{},
		Active:            true,
	})
	if err != nil {
		return u.fail(fmt.Errorf("creating file record: %w", err))
	}

	switch req.TargetKind {
	case TargetUser:
		err = u.records.CreateMemberFile(ctx, req.TargetID, record.ID)
	case TargetTile:
		err = u.records.CreateTileFile(ctx, req.TargetID, record.ID)
	}
	if err != nil {
		return u.fail(fmt.Errorf("creating %s file association: %w", req.TargetKind, err))
	}

	u.logger.Info("attached document", "fileId", record.ID, "target", req.TargetKind, "targetId", req.TargetID)
	u.notifier.Success("Document uploaded")
	return record, nil
}

func (u *Uploader) fail(err error) (*models.File, error) {
	metrics.Inc(metrics.UploadFailedTotal)
	u.logger.Error("document attach failed", "error", err)
	u.notifier.Failure("Upload failed")
	return nil, err
}
