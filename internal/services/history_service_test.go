package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivancode/internal/context"
	"ivancode/internal/testutils"
	"ivancode/pkg/ivantypes"
)

func setupHistoryTest(t *testing.T) *HistoryService {
	t.Helper()
	ctx := context.New()
	ctx.SetTestMode(true)
	context.SetGlobalContext(ctx)
	testutils.ResetTestCounters()

	service := NewHistoryService()
	require.NoError(t, service.Initialize())
	return service
}

func testTranscript(text string) []ivantypes.Message {
	return []ivantypes.Message{
		{ID: "m1", Role: ivantypes.RoleUser, Text: text},
	}
}

func TestHistoryService_CommitCreatesNewProject(t *testing.T) {
	service := setupHistoryTest(t)

	ledger, id, created := service.Commit(nil, "", testTranscript("make a page"), "X")

	require.Len(t, ledger, 1)
	assert.True(t, created)
	assert.Equal(t, id, ledger[0].ID)
	assert.Equal(t, 1, ledger[0].Version)
	assert.Equal(t, "X", ledger[0].Code)
	assert.Contains(t, ledger[0].Title, "Project ")
	assert.Len(t, ledger[0].Messages, 1)
}

func TestHistoryService_CommitAmendsExistingProject(t *testing.T) {
	service := setupHistoryTest(t)

	ledger, id, _ := service.Commit(nil, "", testTranscript("make a page"), "X")
	title := ledger[0].Title

	ledger, amendedID, created := service.Commit(ledger, id, testTranscript("tweak it"), "Y")

	require.Len(t, ledger, 1)
	assert.False(t, created)
	assert.Equal(t, id, amendedID)
	assert.Equal(t, 2, ledger[0].Version)
	assert.Equal(t, "Y", ledger[0].Code)
	assert.Equal(t, title, ledger[0].Title)
}

func TestHistoryService_AmendMovesProjectToFront(t *testing.T) {
	service := setupHistoryTest(t)

	var ledger []ivantypes.Project
	var ids []string
	for i := 0; i < 4; i++ {
		var id string
		ledger, id, _ = service.Commit(ledger, "", testTranscript(fmt.Sprintf("project %d", i)), "code")
		ids = append(ids, id)
	}

	// Amend the oldest entry, which currently sits at the tail.
	target := ids[0]
	ledger, affectedID, created := service.Commit(ledger, target, testTranscript("revisit"), "new code")

	require.Len(t, ledger, 4)
	assert.False(t, created)
	assert.Equal(t, target, affectedID)
	assert.Equal(t, target, ledger[0].ID)
	assert.Equal(t, 2, ledger[0].Version)

	// The untouched entries keep their relative order among themselves.
	assert.Equal(t, ids[3], ledger[1].ID)
	assert.Equal(t, ids[2], ledger[2].ID)
	assert.Equal(t, ids[1], ledger[3].ID)
}

func TestHistoryService_StalePointerFallsBackToCreate(t *testing.T) {
	service := setupHistoryTest(t)

	ledger, _, _ := service.Commit(nil, "", testTranscript("first"), "X")

	ledger, id, created := service.Commit(ledger, "no-such-project", testTranscript("second"), "Y")

	require.Len(t, ledger, 2)
	assert.True(t, created, "stale pointer must be observable as a create")
	assert.Equal(t, id, ledger[0].ID)
	assert.Equal(t, 1, ledger[0].Version)
	assert.Equal(t, "Y", ledger[0].Code)
}

func TestHistoryService_CapacityEviction(t *testing.T) {
	service := setupHistoryTest(t)

	var ledger []ivantypes.Project
	ids := make([]string, 0, MaxLedgerEntries+1)
	for i := 0; i < MaxLedgerEntries+1; i++ {
		var id string
		ledger, id, _ = service.Commit(ledger, "", testTranscript(fmt.Sprintf("project %d", i)), "code")
		ids = append(ids, id)
	}

	require.Len(t, ledger, MaxLedgerEntries)

	// The oldest entry fell off the tail; the most recent 50 survive in order.
	_, found := service.Find(ledger, ids[0])
	assert.False(t, found)
	for i := 0; i < MaxLedgerEntries; i++ {
		assert.Equal(t, ids[len(ids)-1-i], ledger[i].ID)
	}
}

func TestHistoryService_LedgerNeverExceedsCap(t *testing.T) {
	service := setupHistoryTest(t)

	var ledger []ivantypes.Project
	var lastID string
	for i := 0; i < 120; i++ {
		ledger, lastID, _ = service.Commit(ledger, "", testTranscript("another"), "code")
		assert.LessOrEqual(t, len(ledger), MaxLedgerEntries)
	}
	assert.Equal(t, lastID, ledger[0].ID)
}

func TestHistoryService_AmendAtCapacityEvictsNothing(t *testing.T) {
	service := setupHistoryTest(t)

	var ledger []ivantypes.Project
	ids := make([]string, 0, MaxLedgerEntries)
	for i := 0; i < MaxLedgerEntries; i++ {
		var id string
		ledger, id, _ = service.Commit(ledger, "", testTranscript(fmt.Sprintf("project %d", i)), "X")
		ids = append(ids, id)
	}

	// Amending the oldest entry at capacity moves it to the front; the ledger
	// does not grow, so nothing is evicted.
	oldest := ids[0]
	ledger, amendedID, created := service.Commit(ledger, oldest, testTranscript("revisit"), "Y")

	assert.False(t, created)
	assert.Equal(t, oldest, amendedID)
	require.Len(t, ledger, MaxLedgerEntries)
	assert.Equal(t, oldest, ledger[0].ID)
	for _, id := range ids {
		_, found := service.Find(ledger, id)
		assert.True(t, found)
	}
}

func TestHistoryService_VersionIncreasesByExactlyOne(t *testing.T) {
	service := setupHistoryTest(t)

	ledger, id, _ := service.Commit(nil, "", testTranscript("start"), "v1")
	for want := 2; want <= 6; want++ {
		ledger, _, _ = service.Commit(ledger, id, testTranscript("again"), "next")
		assert.Equal(t, want, ledger[0].Version)
	}
}

func TestHistoryService_Find(t *testing.T) {
	service := setupHistoryTest(t)

	ledger, id, _ := service.Commit(nil, "", testTranscript("find me"), "code")

	project, found := service.Find(ledger, id)
	require.True(t, found)
	assert.Equal(t, id, project.ID)

	_, found = service.Find(ledger, "missing")
	assert.False(t, found)
}

func TestHistoryService_CommitDoesNotAliasTranscript(t *testing.T) {
	service := setupHistoryTest(t)

	msgs := testTranscript("original")
	ledger, _, _ := service.Commit(nil, "", msgs, "code")

	msgs[0].Text = "mutated"
	assert.Equal(t, "original", ledger[0].Messages[0].Text)
}

func TestHistoryService_ArtifactDiff(t *testing.T) {
	service := setupHistoryTest(t)

	diff := service.ArtifactDiff("<div>old</div>", "<div>new</div>")
	assert.Contains(t, diff, "old")
	assert.Contains(t, diff, "new")

	// Identical revisions diff to the unchanged text.
	same := service.ArtifactDiff("x", "x")
	assert.Equal(t, "x", same)
}
