// Repository functions for the Audit model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics: when an audit is not found, functions return
// gorm.ErrRecordNotFound (exported here as ErrNotFound); other DB errors are
// propagated raw.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-seo-audit-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// gorm.ErrRecordNotFound for convenience across services and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateAudit inserts a pending Audit row for the given request id and URL.
func CreateAudit(ctx context.Context, db *gorm.DB, requestID, url string) (*domain.Audit, error) {
	a := &domain.Audit{
		ID:        uuid.NewString(),
		RequestID: requestID,
		URL:       url,
		Status:    domain.AuditStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// MarkAuditRunning transitions the audit for requestID to "running".
func MarkAuditRunning(ctx context.Context, db *gorm.DB, requestID string) error {
	return updateByRequestID(ctx, db, requestID, map[string]any{
		"status": domain.AuditStatusRunning,
	})
}

// MarkAuditSuccess stores the finished report for requestID.
func MarkAuditSuccess(ctx context.Context, db *gorm.DB, requestID, title, summary, report string) error {
	return updateByRequestID(ctx, db, requestID, map[string]any{
		"status":  domain.AuditStatusSuccess,
		"title":   title,
		"summary": summary,
		"report":  report,
	})
}

// MarkAuditError records a terminal failure for requestID.
func MarkAuditError(ctx context.Context, db *gorm.DB, requestID, message string) error {
	return updateByRequestID(ctx, db, requestID, map[string]any{
		"status":        domain.AuditStatusError,
		"error_message": message,
	})
}

// GetAuditByRequestID fetches a single audit, or ErrNotFound if missing.
func GetAuditByRequestID(ctx context.Context, db *gorm.DB, requestID string) (*domain.Audit, error) {
	var a domain.Audit
	err := db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CountAudits returns the total number of audits (for pagination).
func CountAudits(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Audit{}).Count(&n).Error
	return n, err
}

// ListAuditsPage returns a page of audits ordered by creation time
// descending (most recent first).
func ListAuditsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Audit, error) {
	var out []domain.Audit
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// updateByRequestID applies updates to the audit owning requestID and maps
// "no rows" onto ErrNotFound.
func updateByRequestID(ctx context.Context, db *gorm.DB, requestID string, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Audit{}).
		Where("request_id = ?", requestID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
