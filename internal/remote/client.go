// Package remote wraps the external audit-submission capability. The
// report-generation side (spreadsheets, slides, folders) lives entirely
// behind this contract; the client only assembles a payload and posts it.
package remote

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/auditflow/internal/models"
)

// AuditMetadata identifies the audit being submitted.
type AuditMetadata struct {
	AuditID     string                 `json:"auditId"`
	SiteName    string                 `json:"siteName"`
	ClientName  string                 `json:"clientName"`
	AuditorName string                 `json:"auditorName"`
	Location    string                 `json:"location"`
	CreatedAt   string                 `json:"createdAt"`
	Drive       *models.DriveResources `json:"driveResources,omitempty"`
}

// PayloadItem is one checklist item with its response merged in.
type PayloadItem struct {
	SlNo        string `json:"slNo"`
	Description string `json:"description"`
	Response    string `json:"response,omitempty"`
	Remarks     string `json:"remarks,omitempty"`
}

// PayloadSection groups payload items under their section title.
type PayloadSection struct {
	Title string        `json:"title"`
	Items []PayloadItem `json:"items"`
}

// PayloadPhoto references one photo, either by its durable remote
// reference or as inline base64 content.
type PayloadPhoto struct {
	ItemID          string `json:"itemId"`
	Filename        string `json:"filename"`
	RemoteFileID    string `json:"remoteFileId,omitempty"`
	RemoteLink      string `json:"remoteLink,omitempty"`
	Base64          string `json:"base64,omitempty"`
	AlreadyUploaded bool   `json:"alreadyUploaded"`
}

// SubmitPayload is the wire shape of one audit submission.
type SubmitPayload struct {
	AuditMetadata          AuditMetadata              `json:"auditMetadata"`
	ChecklistWithResponses []PayloadSection           `json:"checklistWithResponses"`
	Photos                 []PayloadPhoto             `json:"photos"`
	Responses              map[string]models.Response `json:"responses"`
}

// Client is the remote submit capability consumed by the sync engine.
type Client interface {
	// SubmitAudit posts the payload and returns the opaque result (report
	// and document references generated remotely).
	SubmitAudit(ctx context.Context, payload *SubmitPayload) (json.RawMessage, error)
}
