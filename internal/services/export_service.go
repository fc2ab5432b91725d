package services

import (
	"fmt"
	"os"
	"path/filepath"

	"ivancode/internal/logger"
)

// exportPrefix is the product prefix of exported artifact file names.
const exportPrefix = "ivan_code"

// ExportService writes the current artifact to disk and copies it to the
// system clipboard. The artifact leaves this service byte for byte as it was
// generated: no placeholder substitution, no credential injection, no rewriting
// of any kind.
type ExportService struct {
	initialized bool
	catalog     *CatalogService
}

// NewExportService creates an ExportService that resolves the catalog service
// from the global registry during Initialize.
func NewExportService() *ExportService {
	return &ExportService{}
}

// NewExportServiceWithDeps creates an ExportService with an explicit catalog,
// for tests.
func NewExportServiceWithDeps(catalog *CatalogService) *ExportService {
	return &ExportService{catalog: catalog}
}

// Name returns the service name "export" for registration.
func (e *ExportService) Name() string {
	return "export"
}

// Initialize wires the catalog service.
func (e *ExportService) Initialize() error {
	if e.catalog == nil {
		service, err := GlobalRegistry.GetService("catalog")
		if err != nil {
			return fmt.Errorf("export service requires catalog service: %w", err)
		}
		e.catalog = service.(*CatalogService)
	}
	e.initialized = true
	return nil
}

// Filename builds the export file name: ivan_code_v<version>.<ext>, with the
// extension resolved from the language catalog.
func (e *ExportService) Filename(version int, language string) string {
	return fmt.Sprintf("%s_v%d.%s", exportPrefix, version, e.catalog.ExtensionFor(language))
}

// Export writes the artifact verbatim into dir and returns the written path.
func (e *ExportService) Export(dir, artifact string, version int, language string) (string, error) {
	if !e.initialized {
		return "", fmt.Errorf("export service not initialized")
	}
	if artifact == "" {
		return "", fmt.Errorf("no artifact to export")
	}

	path := filepath.Join(dir, e.Filename(version, language))
	if err := os.WriteFile(path, []byte(artifact), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	logger.Info("Artifact exported", "path", path, "bytes", len(artifact))
	return path, nil
}

// CopyToClipboard places the raw artifact text on the system clipboard,
// verbatim.
func (e *ExportService) CopyToClipboard(artifact string) error {
	if artifact == "" {
		return fmt.Errorf("no artifact to copy")
	}
	if !clipboardAvailable {
		return fmt.Errorf("clipboard not available on this platform")
	}
	if err := initClipboard(); err != nil {
		return err
	}
	return writeToClipboard(artifact)
}
