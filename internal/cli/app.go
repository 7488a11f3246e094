// Package cli provides the interactive front-end of the AuditFlow client.
// It is a thin stand-in for the mobile UI: every command maps onto one
// store/queue/engine operation.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/auditflow/internal/config"
	"github.com/dmitrijs2005/auditflow/internal/connectivity"
	"github.com/dmitrijs2005/auditflow/internal/logging"
	"github.com/dmitrijs2005/auditflow/internal/models"
	"github.com/dmitrijs2005/auditflow/internal/store"
	"github.com/dmitrijs2005/auditflow/internal/syncer"
	"github.com/dmitrijs2005/auditflow/internal/uploader"
)

// App wires the offline store, upload queue, sync engine and connectivity
// monitor behind the REPL commands.
type App struct {
	config  *config.Config
	store   *store.Store
	queue   *uploader.Queue
	engine  *syncer.Engine
	monitor *connectivity.Monitor
	log     logging.Logger
	reader  *bufio.Reader
}

func NewApp(cfg *config.Config, st *store.Store, q *uploader.Queue, e *syncer.Engine, m *connectivity.Monitor, log logging.Logger) *App {
	return &App{
		config:  cfg,
		store:   st,
		queue:   q,
		engine:  e,
		monitor: m,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
	}
}

// Run starts the REPL and blocks until the user exits or ctx is canceled.
func (a *App) Run(ctx context.Context) {
	a.logStartup(ctx)
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) logStartup(ctx context.Context) {
	a.log.Info(ctx, "auditflow client ready",
		"db", a.config.DatabasePath, "submitUrl", a.config.SubmitURL)
}

func (a *App) status() string {
	if a.monitor.Online() {
		return "online"
	}
	return "offline"
}

func (a *App) prompt(label string) (string, error) {
	fmt.Printf("%s: ", label)
	line, err := a.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// NewAudit prompts for audit metadata and creates a draft audit.
func (a *App) NewAudit(ctx context.Context) error {
	site, err := a.prompt("Site name")
	if err != nil {
		return err
	}
	client, err := a.prompt("Client name")
	if err != nil {
		return err
	}
	auditor, err := a.prompt("Auditor name")
	if err != nil {
		return err
	}
	location, err := a.prompt("Location")
	if err != nil {
		return err
	}

	audit, err := a.store.CreateAudit(ctx, store.NewAudit{
		SiteName:    site,
		ClientName:  client,
		AuditorName: auditor,
		Location:    location,
	})
	if err != nil {
		printlnFn("Error creating audit:", err)
		return err
	}
	printlnFn("Created audit", audit.ID)
	return nil
}

// List prints all audits with their status.
func (a *App) List(ctx context.Context) error {
	audits, err := a.store.ListAudits(ctx)
	if err != nil {
		printlnFn("Error listing audits:", err)
		return err
	}
	for _, audit := range audits {
		printlnFn(fmt.Sprintf("%s  %-12s  %s / %s", audit.ID, audit.Status, audit.SiteName, audit.ClientName))
	}
	if len(audits) == 0 {
		printlnFn("No audits yet")
	}
	return nil
}

// Respond records a response for one checklist item.
func (a *App) Respond(ctx context.Context) error {
	id, err := a.prompt("Audit id")
	if err != nil {
		return err
	}
	itemID, err := a.prompt("Item id")
	if err != nil {
		return err
	}
	value, err := a.prompt("Response")
	if err != nil {
		return err
	}
	remarks, err := a.prompt("Remarks")
	if err != nil {
		return err
	}

	_, err = a.store.UpdateAudit(ctx, id, store.AuditPatch{
		Responses: map[string]models.Response{
			itemID: {Value: value, Remarks: remarks},
		},
	})
	if err != nil {
		printlnFn("Error recording response:", err)
		return err
	}
	printlnFn("Recorded")
	return nil
}

// AddPhoto attaches an image file to a checklist item and enqueues it for
// background upload.
func (a *App) AddPhoto(ctx context.Context) error {
	id, err := a.prompt("Audit id")
	if err != nil {
		return err
	}
	itemID, err := a.prompt("Item id")
	if err != nil {
		return err
	}
	path, err := a.prompt("Image path")
	if err != nil {
		return err
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		printlnFn("Error reading image:", err)
		return err
	}

	photo, err := a.store.SavePhoto(ctx, id, itemID, blob, fileBase(path))
	if err != nil {
		printlnFn("Error saving photo:", err)
		return err
	}

	audit, err := a.store.GetAudit(ctx, id)
	if err != nil {
		return err
	}
	hint := ""
	if audit.Drive != nil {
		hint = audit.Drive.PhotosFolderID
	}
	a.queue.Enqueue(photo, hint)
	printlnFn("Photo queued for upload:", photo.ID)
	return nil
}

// Complete marks an audit completed, making it sync-eligible.
func (a *App) Complete(ctx context.Context) error {
	id, err := a.prompt("Audit id")
	if err != nil {
		return err
	}

	completed := models.AuditStatusCompleted
	if _, err := a.store.UpdateAudit(ctx, id, store.AuditPatch{Status: &completed}); err != nil {
		printlnFn("Error completing audit:", err)
		return err
	}
	printlnFn("Audit completed, pending sync")
	return nil
}

// UploadStatus prints the upload badge counts for one audit.
func (a *App) UploadStatus(ctx context.Context) error {
	id, err := a.prompt("Audit id")
	if err != nil {
		return err
	}

	st, err := a.queue.Status(ctx, id)
	if err != nil {
		printlnFn("Error:", err)
		return err
	}
	printlnFn(fmt.Sprintf("uploading %d/%d, %d failed", st.Uploaded, st.Total, st.Failed))
	return nil
}

// Sync runs the batch driver once.
func (a *App) Sync(ctx context.Context) error {
	res, err := a.engine.SyncPendingAudits(ctx)
	if err != nil {
		a.log.Error(ctx, "sync failed", "error", err)
		printlnFn("Sync error:", err)
		return err
	}
	if res.Offline {
		printlnFn("Device offline, nothing synced")
		return nil
	}
	printlnFn(fmt.Sprintf("Synced %d, failed %d", res.Synced, res.Failed))
	return nil
}

// RetryUploads re-enqueues failed photos for one audit.
func (a *App) RetryUploads(ctx context.Context) error {
	id, err := a.prompt("Audit id")
	if err != nil {
		return err
	}

	n, err := a.queue.RetryFailed(ctx, id)
	if err != nil {
		printlnFn("Error:", err)
		return err
	}
	printlnFn(fmt.Sprintf("Re-enqueued %d photos", n))
	return nil
}

// Delete removes an audit and its photos.
func (a *App) Delete(ctx context.Context) error {
	id, err := a.prompt("Audit id")
	if err != nil {
		return err
	}

	if err := a.store.DeleteAudit(ctx, id); err != nil {
		printlnFn("Error deleting audit:", err)
		return err
	}
	printlnFn("Deleted")
	return nil
}

func fileBase(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
