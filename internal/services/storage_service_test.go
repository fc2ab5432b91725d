package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivancode/internal/context"
	"ivancode/internal/storage"
	"ivancode/internal/testutils"
	"ivancode/pkg/ivantypes"
)

func setupStorageTest(t *testing.T) (*StorageService, *storage.MemoryBackend) {
	t.Helper()
	ctx := context.New()
	ctx.SetTestMode(true)
	context.SetGlobalContext(ctx)
	testutils.ResetTestCounters()

	backend := storage.NewMemoryBackend()
	service := NewStorageServiceWithBackend(backend)
	require.NoError(t, service.Initialize())
	return service, backend
}

func TestStorageService_HistoryRoundTrip(t *testing.T) {
	service, _ := setupStorageTest(t)

	ledger := []ivantypes.Project{
		{
			ID:      "p1",
			Title:   "Project of 01.01, 00:00",
			Code:    "<div>hi</div>",
			Version: 3,
			Messages: []ivantypes.Message{
				{ID: "m1", Role: ivantypes.RoleUser, Text: "make a page", Timestamp: time.Date(2025, 1, 1, 0, 0, 1, 0, time.UTC)},
			},
		},
		{ID: "p2", Title: "Older project", Version: 1},
	}

	require.True(t, service.SaveHistory("alice@example.com", ledger))

	got := service.LoadHistory("alice@example.com")
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, 3, got[0].Version)
	assert.Equal(t, "<div>hi</div>", got[0].Code)
	require.Len(t, got[0].Messages, 1)
	assert.Equal(t, "make a page", got[0].Messages[0].Text)
}

func TestStorageService_LoadHistoryEmptyWhenAbsent(t *testing.T) {
	service, _ := setupStorageTest(t)

	got := service.LoadHistory("nobody@example.com")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStorageService_UsersDoNotShareData(t *testing.T) {
	service, _ := setupStorageTest(t)

	require.True(t, service.SaveHistory("alice@example.com", []ivantypes.Project{{ID: "pa"}}))
	require.True(t, service.SaveHistory("bob@example.com", []ivantypes.Project{{ID: "pb"}}))

	alice := service.LoadHistory("alice@example.com")
	bob := service.LoadHistory("bob@example.com")
	require.Len(t, alice, 1)
	require.Len(t, bob, 1)
	assert.Equal(t, "pa", alice[0].ID)
	assert.Equal(t, "pb", bob[0].ID)
}

func TestStorageService_ClassesDoNotCollide(t *testing.T) {
	service, _ := setupStorageTest(t)

	require.True(t, service.SaveHistory("alice@example.com", []ivantypes.Project{{ID: "p1"}}))
	require.True(t, service.SaveSettings("alice@example.com", ivantypes.Settings{Model: "gemini-2.5-flash", Language: "python"}))

	settings, ok := service.LoadSettings("alice@example.com")
	require.True(t, ok)
	assert.Equal(t, "python", settings.Language)

	ledger := service.LoadHistory("alice@example.com")
	require.Len(t, ledger, 1)
	assert.Equal(t, "p1", ledger[0].ID)
}

func TestStorageService_SettingsAbsentReportsFalse(t *testing.T) {
	service, _ := setupStorageTest(t)

	_, ok := service.LoadSettings("alice@example.com")
	assert.False(t, ok)
}

func TestStorageService_AccessibilityRoundTrip(t *testing.T) {
	service, _ := setupStorageTest(t)

	state := ivantypes.DefaultAccessibility()
	state.HighContrast = true
	require.True(t, service.SaveAccessibility("alice@example.com", state))

	got, ok := service.LoadAccessibility("alice@example.com")
	require.True(t, ok)
	assert.True(t, got.HighContrast)
}

func TestStorageService_SaveFailureReturnsFalse(t *testing.T) {
	service, backend := setupStorageTest(t)

	backend.FailWrites = true
	assert.False(t, service.SaveHistory("alice@example.com", []ivantypes.Project{{ID: "p1"}}))

	backend.FailWrites = false
	assert.True(t, service.SaveHistory("alice@example.com", []ivantypes.Project{{ID: "p1"}}))
}

func TestStorageService_SaveRejectsEmptyUser(t *testing.T) {
	service, backend := setupStorageTest(t)

	assert.False(t, service.SaveHistory("", []ivantypes.Project{{ID: "p1"}}))
	assert.Equal(t, 0, backend.Len())
}

func TestStorageService_CorruptValueLoadsAsAbsent(t *testing.T) {
	service, backend := setupStorageTest(t)

	require.NoError(t, backend.Set(dataKey("alice@example.com", DataClassHistory), "{not json"))

	got := service.LoadHistory("alice@example.com")
	assert.Empty(t, got)

	_, ok := service.LoadSettings("alice@example.com")
	assert.False(t, ok)
}

func TestStorageService_RegisterAndLogin(t *testing.T) {
	service, _ := setupStorageTest(t)

	user := ivantypes.User{Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, service.RegisterUser(user, "s3cret"))
	assert.True(t, service.UserExists("alice@example.com"))

	got, err := service.LoginUser("alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
}

func TestStorageService_RegisterDuplicateEmail(t *testing.T) {
	service, _ := setupStorageTest(t)

	user := ivantypes.User{Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, service.RegisterUser(user, "s3cret"))
	require.ErrorIs(t, service.RegisterUser(user, "other"), ErrEmailTaken)
}

func TestStorageService_LoginFailures(t *testing.T) {
	service, _ := setupStorageTest(t)

	_, err := service.LoginUser("ghost@example.com", "pw")
	require.ErrorIs(t, err, ErrAccountNotFound)

	require.NoError(t, service.RegisterUser(ivantypes.User{Name: "Alice", Email: "alice@example.com"}, "s3cret"))
	_, err = service.LoginUser("alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrWrongPassword)

	assert.False(t, service.UserExists("ghost@example.com"))
}
