package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/wellradar/pkg/export"
	"github.com/vanderheijden86/wellradar/pkg/sheet"
	"github.com/vanderheijden86/wellradar/pkg/watcher"
)

// RevisionMsg is sent after the editor commits a change.
type RevisionMsg struct {
	Revision uint64
}

// FileChangedMsg is sent when the radar file changes on disk
type FileChangedMsg struct{}

// SyncDoneMsg reports the end of a sheet sync. Err is set when the
// fallback vector was applied instead.
type SyncDoneMsg struct {
	Err error
}

// SnapshotSavedMsg reports written snapshot files.
type SnapshotSavedMsg struct {
	Paths []string
	Err   error
}

// waitForRevision blocks until the next committed revision. A closed
// channel means the subscription ended; no message is sent then.
func waitForRevision(ch <-chan uint64) tea.Cmd {
	return func() tea.Msg {
		rev, ok := <-ch
		if !ok {
			return nil
		}
		return RevisionMsg{Revision: rev}
	}
}

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// SyncSheetCmd fetches the sheet once and applies the result to target.
func SyncSheetCmd(src sheet.Source, target sheet.Target) tea.Cmd {
	return func() tea.Msg {
		return SyncDoneMsg{Err: sheet.Sync(context.Background(), src, target)}
	}
}

// SaveSnapshotCmd renders the snapshots concurrently.
func SaveSnapshotCmd(snapshots []export.RadarSnapshotOptions) tea.Cmd {
	return func() tea.Msg {
		err := export.SaveSnapshots(context.Background(), snapshots)
		paths := make([]string, len(snapshots))
		for i, s := range snapshots {
			paths[i] = s.Path
		}
		return SnapshotSavedMsg{Paths: paths, Err: err}
	}
}
