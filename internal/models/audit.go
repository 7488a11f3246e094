// Package models defines the client-side data models persisted by the
// AuditFlow local store: audits, their checklist structure and photos.
package models

import (
	"encoding/json"
	"time"
)

// AuditStatus is the lifecycle state of an audit. Transitions are
// monotonic: draft -> in_progress -> completed -> synced.
type AuditStatus string

const (
	AuditStatusDraft      AuditStatus = "draft"
	AuditStatusInProgress AuditStatus = "in_progress"
	AuditStatusCompleted  AuditStatus = "completed"
	AuditStatusSynced     AuditStatus = "synced"
)

var statusRank = map[AuditStatus]int{
	AuditStatusDraft:      0,
	AuditStatusInProgress: 1,
	AuditStatusCompleted:  2,
	AuditStatusSynced:     3,
}

// CanTransitionTo reports whether moving from s to next respects the
// monotonic lifecycle. Staying on the same status is allowed.
func (s AuditStatus) CanTransitionTo(next AuditStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to >= from
}

// Response is one answered checklist item.
type Response struct {
	Value      string    `json:"value"`
	Remarks    string    `json:"remarks,omitempty"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// DriveResources holds externally assigned folder handles created once at
// audit start. Once set they are never reassigned for the life of the audit.
type DriveResources struct {
	FolderID       string `json:"folderId"`
	PhotosFolderID string `json:"photosFolderId"`
}

// Audit is one inspection record persisted locally and submitted to the
// remote report service once completed.
type Audit struct {
	// ID is a globally unique identifier for the audit.
	ID string

	SiteName    string
	ClientName  string
	AuditorName string
	Location    string

	Status AuditStatus

	// Checklist is the normalized checklist structure answered by this audit.
	Checklist Checklist

	// Responses maps a checklist item identifier to its answer.
	Responses map[string]Response

	// Drive is nil until remote folders have been assigned.
	Drive *DriveResources

	// SyncResult is the opaque payload returned by the remote submit call.
	// Present only after Status == synced.
	SyncResult json.RawMessage

	CreatedAt time.Time
	UpdatedAt time.Time
	SyncedAt  *time.Time
}

// Synced reports whether the audit has been durably submitted.
func (a *Audit) Synced() bool {
	return a.Status == AuditStatusSynced
}

// SyncEligible reports whether the audit may be picked up by the sync
// engine. Only completed audits are eligible.
func (a *Audit) SyncEligible() bool {
	return a.Status == AuditStatusCompleted
}
