// Package shell provides the interactive assistant interface for Ivan Code.
// It routes plain input lines to the session coordinator as prompts and
// handles ":" commands for project history, settings, export, and clipboard.
package shell

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"ivancode/internal/context"
	"ivancode/internal/services"
	"ivancode/pkg/ivantypes"
)

// ErrLoggedOut signals that the user left the session via :logout and the
// caller should run the login flow again.
var ErrLoggedOut = errors.New("logged out")

// InitializeServices registers and initializes all Ivan Code services.
func InitializeServices(testMode bool) error {
	globalCtx := context.GetGlobalContext()
	globalCtx.SetTestMode(testMode)

	if err := services.GlobalRegistry.RegisterService(services.NewCatalogService()); err != nil {
		return err
	}
	if err := services.GlobalRegistry.RegisterService(services.NewStorageService()); err != nil {
		return err
	}
	if err := services.GlobalRegistry.RegisterService(services.NewExtractService()); err != nil {
		return err
	}
	if err := services.GlobalRegistry.RegisterService(services.NewHistoryService()); err != nil {
		return err
	}
	if err := services.GlobalRegistry.RegisterService(services.NewSettingsService()); err != nil {
		return err
	}
	if err := services.GlobalRegistry.RegisterService(services.NewSessionService()); err != nil {
		return err
	}
	if err := services.GlobalRegistry.RegisterService(services.NewExportService()); err != nil {
		return err
	}

	return services.GlobalRegistry.InitializeAll()
}

// Shell is the interactive loop bound to one authenticated user session.
type Shell struct {
	session   *services.SessionService
	settings  *services.SettingsService
	catalog   *services.CatalogService
	export    *services.ExportService
	renderer  *Renderer
	user      ivantypes.User
	loggedOut bool
}

// New resolves the services the shell drives and binds them to the user.
func New(user ivantypes.User) (*Shell, error) {
	sessionSvc, err := services.GlobalRegistry.GetService("session")
	if err != nil {
		return nil, err
	}
	settingsSvc, err := services.GlobalRegistry.GetService("settings")
	if err != nil {
		return nil, err
	}
	catalogSvc, err := services.GlobalRegistry.GetService("catalog")
	if err != nil {
		return nil, err
	}
	exportSvc, err := services.GlobalRegistry.GetService("export")
	if err != nil {
		return nil, err
	}

	return &Shell{
		session:  sessionSvc.(*services.SessionService),
		settings: settingsSvc.(*services.SettingsService),
		catalog:  catalogSvc.(*services.CatalogService),
		export:   exportSvc.(*services.ExportService),
		renderer: NewRenderer(),
		user:     user,
	}, nil
}

// Run starts the session for the user and enters the read-eval loop until
// :exit or EOF.
func (s *Shell) Run() error {
	if err := s.settings.BeginUser(s.user.Email); err != nil {
		return err
	}
	if err := s.session.BeginSession(s.user); err != nil {
		return err
	}

	rl, err := readline.New(s.prompt())
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer func() { _ = rl.Close() }()

	for _, msg := range s.session.Messages() {
		s.renderer.PrintMessage(msg)
	}

	for {
		rl.SetPrompt(s.prompt())
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			if quit := s.dispatchCommand(line); quit {
				if s.loggedOut {
					return ErrLoggedOut
				}
				return nil
			}
			continue
		}

		s.submit(line)
	}
}

// submit runs one conversation turn and prints the new model reply.
func (s *Shell) submit(prompt string) {
	before := len(s.session.Messages())
	if err := s.session.Submit(prompt); err != nil {
		switch {
		case errors.Is(err, services.ErrBusy):
			s.renderer.PrintError("A request is already in flight, wait for it to finish.")
		case errors.Is(err, services.ErrEmptyPrompt):
			// Nothing to do
		default:
			s.renderer.PrintError(err.Error())
		}
		return
	}

	for _, msg := range s.session.Messages()[before+1:] {
		s.renderer.PrintMessage(msg)
	}
	if s.session.CurrentProjectID() != "" && s.session.Artifact() != "" {
		s.renderer.PrintArtifactNotice(s.session.CurrentVersion())
	}
}

// dispatchCommand handles ":" commands. Returns true when the shell should exit.
func (s *Shell) dispatchCommand(line string) bool {
	fields := strings.Fields(line)
	command, args := fields[0], fields[1:]

	switch command {
	case ":exit", ":quit":
		return true
	case ":logout":
		s.loggedOut = true
		return true
	case ":new":
		if err := s.session.StartNew(); err != nil {
			s.renderer.PrintError(err.Error())
			return false
		}
		for _, msg := range s.session.Messages() {
			s.renderer.PrintMessage(msg)
		}
	case ":history":
		s.renderer.PrintLedger(s.session.Ledger())
	case ":load":
		s.loadProject(args)
	case ":diff":
		diff := s.session.ArtifactDiff()
		if strings.TrimSpace(diff) == "" {
			s.renderer.PrintInfo("No artifact changes in this session yet.")
			return false
		}
		fmt.Println(diff)
	case ":copy":
		if err := s.export.CopyToClipboard(s.session.Artifact()); err != nil {
			s.renderer.PrintError(err.Error())
			return false
		}
		s.renderer.PrintInfo("Code copied to clipboard.")
	case ":export":
		s.exportArtifact(args)
	case ":model":
		s.setModel(args)
	case ":lang":
		s.setLanguage(args)
	case ":code":
		if s.session.Artifact() == "" {
			s.renderer.PrintInfo("No code generated yet.")
			return false
		}
		fmt.Println(s.session.Artifact())
	case ":help":
		s.renderer.PrintHelp()
	default:
		s.renderer.PrintError(fmt.Sprintf("Unknown command %s (try :help)", command))
	}
	return false
}

// loadProject resumes a ledger entry by its position in :history output.
func (s *Shell) loadProject(args []string) {
	if len(args) != 1 {
		s.renderer.PrintError("Usage: :load <number>")
		return
	}
	index, err := strconv.Atoi(args[0])
	ledger := s.session.Ledger()
	if err != nil || index < 1 || index > len(ledger) {
		s.renderer.PrintError("Usage: :load <number> (see :history)")
		return
	}

	if err := s.session.Resume(ledger[index-1].ID); err != nil {
		s.renderer.PrintError(err.Error())
		return
	}
	for _, msg := range s.session.Messages() {
		s.renderer.PrintMessage(msg)
	}
}

// exportArtifact writes the current artifact to the target directory
// (current directory by default).
func (s *Shell) exportArtifact(args []string) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	path, err := s.export.Export(dir, s.session.Artifact(), s.session.CurrentVersion(), s.settings.Current().Language)
	if err != nil {
		s.renderer.PrintError(err.Error())
		return
	}
	s.renderer.PrintInfo(fmt.Sprintf("Saved to %s", path))
}

func (s *Shell) setModel(args []string) {
	if len(args) != 1 {
		s.renderer.PrintModels(s.catalog.Models(), s.settings.Current().Model)
		return
	}
	if err := s.settings.SetModel(args[0]); err != nil {
		s.renderer.PrintError(err.Error())
		return
	}
	s.renderer.PrintInfo(fmt.Sprintf("Model set to %s", args[0]))
}

func (s *Shell) setLanguage(args []string) {
	if len(args) != 1 {
		s.renderer.PrintLanguages(s.catalog.Languages(), s.settings.Current().Language)
		return
	}
	if err := s.settings.SetLanguage(args[0]); err != nil {
		s.renderer.PrintError(err.Error())
		return
	}
	s.renderer.PrintInfo(fmt.Sprintf("Language set to %s", args[0]))
}

// prompt renders the input prompt with the sync indicator.
func (s *Shell) prompt() string {
	return s.renderer.Prompt(s.session.SyncStatus(), s.session.LastSaveOK())
}
