// Package contextfile loads the layered instruction files that are prepended
// to every prompt: a general file in the home directory and a local file in
// the working directory. Both are optional; a missing file is steady state,
// not an error.
package contextfile

import (
	"os"
	"path/filepath"
	"strings"

	"askgemini/internal/config"
)

const (
	generalHeader = "General context:"
	localHeader   = "Local context:"
)

// Loader resolves the two context sources. Files are read fresh on every
// call; nothing is cached across invocations.
type Loader struct {
	GeneralPath string
	LocalPath   string
}

// New wires the default file names under the given home and working
// directories.
func New(homeDir, workDir string) *Loader {
	return &Loader{
		GeneralPath: filepath.Join(homeDir, config.GeneralContextFileName),
		LocalPath:   filepath.Join(workDir, config.LocalContextFileName),
	}
}

// Load returns the trimmed contents of path, or "" when the file is absent,
// unreadable, or blank.
func Load(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// BuildContextString renders the combined context block: general first
// (outermost), then local, each under its section header. Returns "" when
// both sources are absent so callers can omit the block entirely.
func (l *Loader) BuildContextString() string {
	var sections []string

	if general := Load(l.GeneralPath); general != "" {
		sections = append(sections, generalHeader+"\n"+general)
	}
	if local := Load(l.LocalPath); local != "" {
		sections = append(sections, localHeader+"\n"+local)
	}

	return strings.Join(sections, "\n\n")
}

// ClearLocal removes the local context file. A missing file is success.
func (l *Loader) ClearLocal() error {
	return removeIfPresent(l.LocalPath)
}

// ClearGeneral removes the general context file. A missing file is success.
func (l *Loader) ClearGeneral() error {
	return removeIfPresent(l.GeneralPath)
}

func removeIfPresent(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
