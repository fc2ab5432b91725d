package services

import (
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"

	"ivancode/internal/context"
	"ivancode/internal/logger"
	"ivancode/internal/testutils"
	"ivancode/pkg/ivantypes"
)

// MaxLedgerEntries caps the per-user project ledger. Commits beyond the cap
// silently evict the oldest (tail) entries, never the head. Eviction is by
// position only; the currently open project is not special-cased.
const MaxLedgerEntries = 50

// HistoryService owns the ordered, capacity-bounded project ledger: creation,
// amendment with monotonically increasing versions, move-to-front ordering,
// and tail eviction. It never touches the live transcript; that belongs to the
// session coordinator.
type HistoryService struct {
	initialized bool
}

// NewHistoryService creates a new HistoryService instance.
func NewHistoryService() *HistoryService {
	return &HistoryService{}
}

// Name returns the service name "history" for registration.
func (h *HistoryService) Name() string {
	return "history"
}

// Initialize sets up the HistoryService for operation.
func (h *HistoryService) Initialize() error {
	h.initialized = true
	return nil
}

// Commit records a project revision in the ledger and returns the new ledger
// plus the id of the affected project. The caller must adopt affectedID as its
// current project pointer.
//
// An empty currentID creates a new project at version 1 and prepends it. A
// known currentID produces an amended copy (version +1, transcript and code
// replaced, id and title kept) moved to the front; unamended entries keep
// their relative order. A non-empty currentID that no longer resolves is a
// stale pointer: the commit falls back to creating a new project and reports
// created == true so the caller can observe the recovery.
//
// After either branch the ledger is truncated to MaxLedgerEntries.
func (h *HistoryService) Commit(ledger []ivantypes.Project, currentID string, msgs []ivantypes.Message, code string) (newLedger []ivantypes.Project, affectedID string, created bool) {
	ctx := context.GetGlobalContext()
	now := testutils.GetCurrentTime(ctx)
	transcript := cloneMessages(msgs)

	if currentID != "" {
		for i, project := range ledger {
			if project.ID != currentID {
				continue
			}

			amended := project
			amended.Messages = transcript
			amended.Code = code
			amended.Version = project.Version + 1
			amended.UpdatedAt = now

			newLedger = make([]ivantypes.Project, 0, len(ledger))
			newLedger = append(newLedger, amended)
			newLedger = append(newLedger, ledger[:i]...)
			newLedger = append(newLedger, ledger[i+1:]...)
			return truncateLedger(newLedger), amended.ID, false
		}

		// Stale pointer: the referenced project is gone (e.g. evicted).
		// Recover by creating a new project instead of losing the commit.
		logger.Warn("Stale project pointer, creating new project", "project", currentID)
	}

	project := ivantypes.Project{
		ID:        testutils.GenerateUUID(ctx),
		Title:     fmt.Sprintf("Project %s", now.Format("2006-01-02 15:04")),
		Messages:  transcript,
		Code:      code,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	newLedger = make([]ivantypes.Project, 0, len(ledger)+1)
	newLedger = append(newLedger, project)
	newLedger = append(newLedger, ledger...)
	return truncateLedger(newLedger), project.ID, true
}

// Find looks up a project by id, for resuming a stored project.
func (h *HistoryService) Find(ledger []ivantypes.Project, id string) (ivantypes.Project, bool) {
	for _, project := range ledger {
		if project.ID == id {
			return project, true
		}
	}
	return ivantypes.Project{}, false
}

// ArtifactDiff renders a human-readable diff between two artifact revisions.
// Used by the :diff command and for amend-time debug logging.
func (h *HistoryService) ArtifactDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, true)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.DiffPrettyText(diffs)
}

// truncateLedger drops tail entries beyond the capacity.
func truncateLedger(ledger []ivantypes.Project) []ivantypes.Project {
	if len(ledger) > MaxLedgerEntries {
		dropped := len(ledger) - MaxLedgerEntries
		logger.Debug("Ledger capacity reached, evicting oldest entries", "dropped", dropped)
		return ledger[:MaxLedgerEntries]
	}
	return ledger
}

// cloneMessages copies the transcript so ledger entries never alias the live
// message slice.
func cloneMessages(msgs []ivantypes.Message) []ivantypes.Message {
	cloned := make([]ivantypes.Message, len(msgs))
	copy(cloned, msgs)
	return cloned
}
