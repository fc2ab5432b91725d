package services

import (
	stdctx "context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ivancode/internal/context"
	"ivancode/internal/logger"
	"ivancode/internal/testutils"
	"ivancode/pkg/ivantypes"
)

// Timing defaults. The settle delay reproduces the original product's
// simulated cloud latency; the invoke timeout bounds the model call so a hung
// upstream cannot leave the coordinator stuck in AwaitingModel forever.
const (
	DefaultSettleDelay   = 1200 * time.Millisecond
	DefaultInvokeTimeout = 60 * time.Second
)

// Errors callers branch on when a submission or resume is rejected.
var (
	ErrBusy            = errors.New("a model request is already in flight")
	ErrEmptyPrompt     = errors.New("prompt is empty")
	ErrProjectNotFound = errors.New("project not found")
	ErrNoClient        = errors.New("no model client configured")
)

// invocationErrorText is appended as a model-shaped turn when the invocation
// fails or times out, so the failure is visible in the transcript and the user
// can simply retry.
const invocationErrorText = "Sorry, I ran into a problem talking to the model. Please try again."

// SessionService is the session coordinator. It exclusively owns the live
// transcript and the current-project pointer, serializes turns through its
// Idle/AwaitingModel state machine, and drives the ledger and storage on every
// completed turn that produced an artifact.
//
// Admission control, not buffering: a Submit while a request is in flight is
// rejected with ErrBusy. The model invocation is the only suspension point and
// runs without the lock held, so accessors stay responsive during a turn.
type SessionService struct {
	mu          sync.Mutex
	initialized bool

	history    *HistoryService
	storageSvc *StorageService
	settings   *SettingsService
	client     ivantypes.ModelClient

	settleDelay   time.Duration
	invokeTimeout time.Duration

	userID       string
	userName     string
	state        ivantypes.SessionState
	messages     []ivantypes.Message
	artifact     string
	prevArtifact string
	currentID    string
	ledger       []ivantypes.Project
	syncStatus   ivantypes.SyncStatus
	settleTimer  *time.Timer
	settleGen    uint64
	lastSaveOK   bool
}

// NewSessionService creates a SessionService that resolves its dependencies
// from the global registry during Initialize.
func NewSessionService() *SessionService {
	return &SessionService{
		settleDelay:   DefaultSettleDelay,
		invokeTimeout: DefaultInvokeTimeout,
		state:         ivantypes.StateIdle,
		syncStatus:    ivantypes.SyncSettled,
		lastSaveOK:    true,
	}
}

// NewSessionServiceWithDeps creates a SessionService with explicit
// dependencies, for tests.
func NewSessionServiceWithDeps(history *HistoryService, storageSvc *StorageService, settings *SettingsService, client ivantypes.ModelClient) *SessionService {
	s := NewSessionService()
	s.history = history
	s.storageSvc = storageSvc
	s.settings = settings
	s.client = client
	s.initialized = true
	return s
}

// Name returns the service name "session" for registration.
func (s *SessionService) Name() string {
	return "session"
}

// Initialize wires the history, storage, and settings services.
func (s *SessionService) Initialize() error {
	if s.history == nil {
		service, err := GlobalRegistry.GetService("history")
		if err != nil {
			return fmt.Errorf("session service requires history service: %w", err)
		}
		s.history = service.(*HistoryService)
	}
	if s.storageSvc == nil {
		service, err := GlobalRegistry.GetService("storage")
		if err != nil {
			return fmt.Errorf("session service requires storage service: %w", err)
		}
		s.storageSvc = service.(*StorageService)
	}
	if s.settings == nil {
		service, err := GlobalRegistry.GetService("settings")
		if err != nil {
			return fmt.Errorf("session service requires settings service: %w", err)
		}
		s.settings = service.(*SettingsService)
	}
	s.initialized = true
	return nil
}

// SetClient installs the model client. Must be called before the first Submit.
func (s *SessionService) SetClient(client ivantypes.ModelClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
}

// SetSettleDelay overrides the simulated cloud settle delay.
func (s *SessionService) SetSettleDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleDelay = d
}

// SetInvokeTimeout overrides the model invocation timeout.
func (s *SessionService) SetInvokeTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invokeTimeout = d
}

// BeginSession starts a fresh session for the user: the stored ledger is
// loaded fully into memory, the transcript is reset to the greeting, and no
// project is open.
func (s *SessionService) BeginSession(user ivantypes.User) error {
	if !s.initialized {
		return fmt.Errorf("session service not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.userID = user.Email
	s.userName = user.Name
	s.ledger = s.storageSvc.LoadHistory(user.Email)
	s.messages = []ivantypes.Message{s.greetingMessage()}
	s.artifact = ""
	s.prevArtifact = ""
	s.currentID = ""
	s.state = ivantypes.StateIdle
	s.setSyncStatusLocked(ivantypes.SyncSettled)

	logger.Info("Session started", "user", user.Email, "projects", len(s.ledger))
	return nil
}

// Submit runs one conversation turn: append the user message, invoke the
// model, append the reply, and commit a project revision when the reply
// carried an artifact. Empty or whitespace-only utterances and submissions
// while a request is in flight are rejected without side effects.
//
// Invocation failures are not returned: they become a model-shaped error turn
// in the transcript and the coordinator returns to Idle for a retry.
func (s *SessionService) Submit(utterance string) error {
	if !s.initialized {
		return fmt.Errorf("session service not initialized")
	}
	if strings.TrimSpace(utterance) == "" {
		return ErrEmptyPrompt
	}

	s.mu.Lock()
	if s.state != ivantypes.StateIdle {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.client == nil {
		s.mu.Unlock()
		return ErrNoClient
	}

	ctx := context.GetGlobalContext()
	s.messages = append(s.messages, ivantypes.Message{
		ID:        testutils.GenerateUUID(ctx),
		Role:      ivantypes.RoleUser,
		Text:      utterance,
		Timestamp: testutils.GetCurrentTime(ctx),
	})
	s.state = ivantypes.StateAwaitingModel
	s.setSyncStatusLocked(ivantypes.SyncPending)

	// Snapshot everything the invocation needs, then release the lock: the
	// model call is the only suspension point and must not block accessors.
	priorHistory := cloneMessages(s.messages[:len(s.messages)-1])
	settings := s.settings.Current()
	client := s.client
	timeout := s.invokeTimeout
	s.mu.Unlock()

	callCtx, cancel := stdctx.WithTimeout(stdctx.Background(), timeout)
	defer cancel()
	resp, err := client.Generate(callCtx, priorHistory, utterance, settings)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.state = ivantypes.StateIdle }()

	if err != nil {
		logger.Error("Model invocation failed", "error", err)
		s.appendModelMessageLocked(invocationErrorText)
		s.setSyncStatusLocked(ivantypes.SyncSettled)
		return nil
	}

	displayText, code, found := resp.Text, resp.Code, resp.HasCode()
	if !found {
		// Upstream did not pre-split; extract the artifact ourselves.
		displayText, code, found = ExtractArtifact(resp.Text)
	}
	s.appendModelMessageLocked(displayText)

	if !found {
		// Text-only turn: artifact pane untouched, no ledger write.
		s.setSyncStatusLocked(ivantypes.SyncSettled)
		return nil
	}

	s.prevArtifact = s.artifact
	s.artifact = code

	newLedger, affectedID, created := s.history.Commit(s.ledger, s.currentID, s.messages, code)
	if created && s.currentID != "" {
		logger.Warn("Commit recovered from stale project pointer", "stale", s.currentID, "project", affectedID)
	}
	s.ledger = newLedger
	s.currentID = affectedID

	if s.storageSvc.SaveHistory(s.userID, s.ledger) {
		s.lastSaveOK = true
		s.scheduleSettleLocked()
	} else {
		// Session-only state from here; the pending indicator doubles as the
		// "not saved" signal.
		s.lastSaveOK = false
		logger.Warn("Project not saved, continuing with session copy", "project", affectedID)
	}

	logger.Debug("Turn committed", "project", affectedID, "created", created, "messages", len(s.messages))
	return nil
}

// Resume replaces the live transcript and artifact with a stored project's
// contents and opens that project. Only valid while Idle.
func (s *SessionService) Resume(projectID string) error {
	if !s.initialized {
		return fmt.Errorf("session service not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != ivantypes.StateIdle {
		return ErrBusy
	}
	project, ok := s.history.Find(s.ledger, projectID)
	if !ok {
		return ErrProjectNotFound
	}

	s.messages = cloneMessages(project.Messages)
	s.artifact = project.Code
	s.prevArtifact = ""
	s.currentID = project.ID
	s.setSyncStatusLocked(ivantypes.SyncSettled)

	logger.Info("Project resumed", "project", project.ID, "version", project.Version)
	return nil
}

// StartNew resets the live session to the greeting turn without touching the
// ledger: the next artifact commit will create a new project.
func (s *SessionService) StartNew() error {
	if !s.initialized {
		return fmt.Errorf("session service not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != ivantypes.StateIdle {
		return ErrBusy
	}

	s.messages = []ivantypes.Message{s.greetingMessage()}
	s.artifact = ""
	s.prevArtifact = ""
	s.currentID = ""
	s.setSyncStatusLocked(ivantypes.SyncSettled)
	return nil
}

// Messages returns a copy of the live transcript.
func (s *SessionService) Messages() []ivantypes.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMessages(s.messages)
}

// Artifact returns the current artifact body, "" when none was produced yet.
func (s *SessionService) Artifact() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact
}

// ArtifactDiff renders the change between the previous and current artifact
// revision of this session.
func (s *SessionService) ArtifactDiff() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.ArtifactDiff(s.prevArtifact, s.artifact)
}

// CurrentProjectID returns the open project id, "" when none is open.
func (s *SessionService) CurrentProjectID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// CurrentVersion returns the version of the open project, 1 when none is open.
func (s *SessionService) CurrentVersion() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if project, ok := s.history.Find(s.ledger, s.currentID); ok {
		return project.Version
	}
	return 1
}

// State returns the coordinator state.
func (s *SessionService) State() ivantypes.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SyncStatus returns the save indicator for the active session.
func (s *SessionService) SyncStatus() ivantypes.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncStatus
}

// LastSaveOK reports whether the most recent ledger write reached the backend.
func (s *SessionService) LastSaveOK() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaveOK
}

// Ledger returns a copy of the in-memory project ledger, newest first.
func (s *SessionService) Ledger() []ivantypes.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger := make([]ivantypes.Project, len(s.ledger))
	copy(ledger, s.ledger)
	return ledger
}

// greetingMessage builds the fixed opening turn of a fresh session.
func (s *SessionService) greetingMessage() ivantypes.Message {
	ctx := context.GetGlobalContext()
	name := s.userName
	if name == "" {
		name = "there"
	}
	return ivantypes.Message{
		ID:        testutils.GenerateUUID(ctx),
		Role:      ivantypes.RoleModel,
		Text:      fmt.Sprintf("Hello %s! I am Ivan Code.\nWhich language are we writing today? (default: HTML)", name),
		Timestamp: testutils.GetCurrentTime(ctx),
	}
}

// appendModelMessageLocked appends a model turn. Caller holds the lock.
func (s *SessionService) appendModelMessageLocked(text string) {
	ctx := context.GetGlobalContext()
	s.messages = append(s.messages, ivantypes.Message{
		ID:        testutils.GenerateUUID(ctx),
		Role:      ivantypes.RoleModel,
		Text:      text,
		Timestamp: testutils.GetCurrentTime(ctx),
	})
}

// setSyncStatusLocked updates the indicator and invalidates any scheduled
// settle so a superseded timer cannot flip a newer pending state. Caller holds
// the lock.
func (s *SessionService) setSyncStatusLocked(status ivantypes.SyncStatus) {
	s.settleGen++
	if s.settleTimer != nil {
		s.settleTimer.Stop()
		s.settleTimer = nil
	}
	s.syncStatus = status
}

// scheduleSettleLocked arms the settle timer: a fixed delay after a durable
// write the indicator flips back to settled. A newer commit supersedes any
// armed timer. Caller holds the lock.
func (s *SessionService) scheduleSettleLocked() {
	s.settleGen++
	if s.settleTimer != nil {
		s.settleTimer.Stop()
	}
	gen := s.settleGen
	s.settleTimer = time.AfterFunc(s.settleDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen == s.settleGen {
			s.syncStatus = ivantypes.SyncSettled
			s.settleTimer = nil
		}
	})
}
