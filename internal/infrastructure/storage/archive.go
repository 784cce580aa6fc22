// Package storage archives generated invoice PDFs in S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	infraconfig "github.com/invoicer/backend/internal/infrastructure/config"
)

// ErrArchiveDisabled is returned by lookups when no object storage is configured
var ErrArchiveDisabled = errors.New("document archive is disabled")

// Archive stores documents by key
type Archive interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// NewArchive returns an S3 archive, or a NoopArchive when storage is disabled.
// The bucket is created when missing.
func NewArchive(ctx context.Context, cfg infraconfig.StorageConfig, logger *zap.Logger) (Archive, error) {
	if !cfg.Enabled {
		logger.Info("Document archive disabled")
		return NewNoopArchive(logger), nil
	}
	s, err := NewS3Archive(&cfg, WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// InvoiceKey is the archive key of an invoice PDF; re-sending overwrites it
func InvoiceKey(ownerID, invoiceNumber string) string {
	return path.Join("invoices", ownerID, sanitizeKeyPart(invoiceNumber)+".pdf")
}

func sanitizeKeyPart(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}

// NoopArchive discards uploads
type NoopArchive struct {
	logger *zap.Logger
}

// NewNoopArchive creates a NoopArchive
func NewNoopArchive(logger *zap.Logger) *NoopArchive {
	return &NoopArchive{logger: logger}
}

// Upload implements Archive
func (a *NoopArchive) Upload(_ context.Context, key string, data []byte, _ string) error {
	a.logger.Debug("Archive disabled, document not stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// Exists implements Archive
func (a *NoopArchive) Exists(context.Context, string) (bool, error) {
	return false, nil
}

// DownloadURL implements Archive
func (a *NoopArchive) DownloadURL(context.Context, string, time.Duration) (string, time.Time, error) {
	return "", time.Time{}, ErrArchiveDisabled
}

var _ Archive = (*NoopArchive)(nil)
