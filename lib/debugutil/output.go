package debugutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	devenv "misattend/dev/env"
)

// Output receives debugging artifacts (page snapshots) keyed by a file name.
type Output interface {
	Write(name string, contents string)
}

type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput creates dir if it does not already exist, artifacts from
// previous runs are overwritten by name. dir may be a "<dev_state>/..." path.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	dir, err := devenv.ResolvePath(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0700)
	if err != nil {
		return FilesystemOutput{}, fmt.Errorf("create debug output dir: %w", err)
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(name string, contents string) {
	path := filepath.Join(o.directory, filepath.Base(name))
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write debug output", "path", path, "err", err)
		return
	}
	slog.Debug("saved debug output", "path", path)
}
