package export

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/exportmap/internal/logfields"
)

const (
	stageSuffix = "_stage"
	prevSuffix  = ".prev"
)

// beginStaging creates a sibling staging directory: <out>_stage.
func (e *Exporter) beginStaging() error {
	stage := e.out + stageSuffix
	if err := os.RemoveAll(stage); err != nil {
		return fmt.Errorf("clear stale staging dir: %w", err)
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return err
	}
	e.stageDir = stage
	slog.Debug("Initialized staging directory", logfields.Path(stage), slog.String("final", e.out))
	return nil
}

// finalizeStaging promotes the staging directory: the current output moves
// to <out>.prev, staging is renamed to <out>, then the backup is removed.
func (e *Exporter) finalizeStaging() error {
	if e.stageDir == "" {
		return fmt.Errorf("no staging directory initialized")
	}
	prev := e.out + prevSuffix
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("remove previous backup: %w", err)
	}
	if _, err := os.Stat(e.out); err == nil {
		if err := os.Rename(e.out, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
	}
	if err := os.Rename(e.stageDir, e.out); err != nil {
		// Put the previous output back so a failed promotion leaves it intact.
		_ = os.Rename(prev, e.out)
		return fmt.Errorf("promote staging: %w", err)
	}
	e.stageDir = ""
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	slog.Debug("Promoted staging directory", logfields.Path(e.out))
	return nil
}

// abortStaging removes the staging directory after a failed export.
func (e *Exporter) abortStaging() {
	if e.stageDir == "" {
		return
	}
	dir := e.stageDir
	e.stageDir = ""
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort", logfields.Path(dir), logfields.Error(err))
	}
}
