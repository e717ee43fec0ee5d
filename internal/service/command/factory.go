package command

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sandevgo/medichat/internal/core"
)

type Deps struct {
	Config   core.ProviderConfig
	Models   ModelSwitcher
	Sessions Sessions
	Library  DocumentLibrary
	// Fetcher enables /fetch when set.
	Fetcher URLIngester
	// AllowUpload enables /upload, which reads files from the host.
	AllowUpload bool
}

func NewCommands(deps Deps) []core.Command {
	cmds := []core.Command{
		NewModelCommand(deps.Config, deps.Models),
		NewHistoryCommand(deps.Sessions),
		NewClearCommand(deps.Sessions),
		NewSummaryCommand(deps.Sessions),
		NewExportCommand(deps.Sessions),
		NewDocsCommand(deps.Library),
	}
	if deps.Fetcher != nil {
		cmds = append(cmds, NewFetchCommand(deps.Fetcher))
	}
	if deps.AllowUpload {
		cmds = append(cmds, NewUploadCommand(deps.Library))
	}
	return cmds
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
