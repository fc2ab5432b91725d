package shell

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"ivancode/internal/logger"
	"ivancode/pkg/ivantypes"
)

var (
	userStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))  // Blue
	modelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))  // Purple
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))             // Green
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))            // Red
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))            // Orange
	settledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))             // Green
	titleStyle    = lipgloss.NewStyle().Bold(true)
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Renderer prints transcript turns and shell feedback. Model replies are
// rendered as markdown; everything else is plain styled text.
type Renderer struct {
	markdown *glamour.TermRenderer
}

// NewRenderer builds a renderer with auto-detected terminal styling. A failed
// markdown renderer degrades to plain text output.
func NewRenderer() *Renderer {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		logger.Debug("Markdown renderer unavailable, using plain text", "error", err)
		renderer = nil
	}
	return &Renderer{markdown: renderer}
}

// PrintMessage prints one transcript turn.
func (r *Renderer) PrintMessage(msg ivantypes.Message) {
	if msg.Role == ivantypes.RoleUser {
		fmt.Printf("%s %s\n", userStyle.Render("you>"), msg.Text)
		return
	}

	fmt.Println(modelStyle.Render("ivan>"))
	if r.markdown != nil {
		if rendered, err := r.markdown.Render(msg.Text); err == nil {
			fmt.Print(rendered)
			return
		}
	}
	fmt.Println(msg.Text)
}

// PrintArtifactNotice tells the user the editor pane changed.
func (r *Renderer) PrintArtifactNotice(version int) {
	fmt.Println(subtleStyle.Render(fmt.Sprintf("— artifact updated (v%d), :code to view, :export to save —", version)))
}

// PrintLedger lists the project history, newest first.
func (r *Renderer) PrintLedger(ledger []ivantypes.Project) {
	if len(ledger) == 0 {
		r.PrintInfo("No projects yet. Ask for some code to create one.")
		return
	}
	for i, project := range ledger {
		version := ""
		if project.Version > 1 {
			version = subtleStyle.Render(fmt.Sprintf(" v%d", project.Version))
		}
		fmt.Printf("%2d. %s%s  %s\n", i+1, titleStyle.Render(project.Title), version,
			subtleStyle.Render(project.UpdatedAt.Format("2006-01-02 15:04")))
	}
}

// PrintModels lists the model catalog, marking the active entry.
func (r *Renderer) PrintModels(models []ivantypes.ModelSpec, active string) {
	for _, m := range models {
		marker := "  "
		if m.ID == active {
			marker = infoStyle.Render("* ")
		}
		fmt.Printf("%s%s  %s\n", marker, m.ID, subtleStyle.Render(m.DisplayName))
	}
}

// PrintLanguages lists the language catalog, marking the active entry.
func (r *Renderer) PrintLanguages(languages []ivantypes.LanguageSpec, active string) {
	for _, l := range languages {
		marker := "  "
		if l.ID == active {
			marker = infoStyle.Render("* ")
		}
		fmt.Printf("%s%s  %s\n", marker, l.ID, subtleStyle.Render("."+l.Extension))
	}
}

// PrintInfo prints a confirmation line.
func (r *Renderer) PrintInfo(text string) {
	fmt.Println(infoStyle.Render(text))
}

// PrintError prints an error line.
func (r *Renderer) PrintError(text string) {
	fmt.Println(errorStyle.Render(text))
}

// PrintHelp prints the command reference.
func (r *Renderer) PrintHelp() {
	fmt.Println(`Type a request to generate code, or use a command:
  :new           start a new project (history is kept)
  :history       list saved projects
  :load <n>      resume a project from :history
  :code          print the current artifact
  :diff          show what changed in the artifact this turn
  :copy          copy the artifact to the clipboard
  :export [dir]  save the artifact as ivan_code_v<version>.<ext>
  :model [id]    show or switch the model
  :lang [id]     show or switch the target language
  :logout        switch to another account
  :exit          leave the shell`)
}

// Prompt renders the input prompt with the sync indicator: green when the last
// write settled, orange while a save is pending or when it failed.
func (r *Renderer) Prompt(status ivantypes.SyncStatus, lastSaveOK bool) string {
	indicator := settledStyle.Render("●")
	if status == ivantypes.SyncPending || !lastSaveOK {
		indicator = pendingStyle.Render("●")
	}
	return fmt.Sprintf("%s ivan> ", indicator)
}
