package syncer

import (
	"time"

	"github.com/dmitrijs2005/auditflow/internal/models"
	"github.com/dmitrijs2005/auditflow/internal/remote"
)

// BuildPayload assembles the submission payload: audit metadata, the
// checklist with per-item responses merged in, the resolved photo
// references and the raw responses map.
func BuildPayload(audit *models.Audit, photos []remote.PayloadPhoto) *remote.SubmitPayload {
	sections := make([]remote.PayloadSection, 0, len(audit.Checklist.Sections))
	for _, s := range audit.Checklist.Sections {
		items := make([]remote.PayloadItem, 0, len(s.Items))
		for _, item := range s.Items {
			pi := remote.PayloadItem{
				SlNo:        item.SlNo,
				Description: item.Description,
			}
			if resp, ok := audit.Responses[item.SlNo]; ok {
				pi.Response = resp.Value
				pi.Remarks = resp.Remarks
			}
			items = append(items, pi)
		}
		sections = append(sections, remote.PayloadSection{Title: s.Title, Items: items})
	}

	if photos == nil {
		photos = []remote.PayloadPhoto{}
	}

	return &remote.SubmitPayload{
		AuditMetadata: remote.AuditMetadata{
			AuditID:     audit.ID,
			SiteName:    audit.SiteName,
			ClientName:  audit.ClientName,
			AuditorName: audit.AuditorName,
			Location:    audit.Location,
			CreatedAt:   audit.CreatedAt.Format(time.RFC3339),
			Drive:       audit.Drive,
		},
		ChecklistWithResponses: sections,
		Photos:                 photos,
		Responses:              audit.Responses,
	}
}
