// Package domain defines the persistence model for audits. The type is
// mapped with GORM and forms the data layer of the SEO audit backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Audit lifecycle statuses.
const (
	AuditStatusPending = "pending"
	AuditStatusRunning = "running"
	AuditStatusSuccess = "success"
	AuditStatusError   = "error"
)

// Audit is one audit run for a URL, identified to clients by RequestID.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - RequestID: opaque client-visible identifier; unique, client-supplied
//     or generated at submission.
//   - URL: the audited page, after normalization.
//   - Status: pending → running → success|error.
//   - Title: short human-readable label derived from the primary keyword.
//   - Summary: executive summary extracted from the report.
//   - Report: full Markdown recommendation report.
//   - ErrorMessage: terminal failure message when Status is "error".
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for history).
type Audit struct {
	ID           string         `json:"id"            gorm:"type:char(36);primaryKey"`
	RequestID    string         `json:"request_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_audits_request"`
	URL          string         `json:"url"           gorm:"type:text;not null"`
	Status       string         `json:"status"        gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','running','success','error')"`
	Title        string         `json:"title"         gorm:"type:varchar(255)"`
	Summary      string         `json:"summary"       gorm:"type:text"`
	Report       string         `json:"report"        gorm:"type:text"`
	ErrorMessage string         `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"             gorm:"index"`
}

// TableName returns the database table name for Audit.
func (Audit) TableName() string { return "audits" }

// Terminal reports whether the audit reached a final state.
func (a *Audit) Terminal() bool {
	return a.Status == AuditStatusSuccess || a.Status == AuditStatusError
}
