// Package ui is the terminal editor for a radar. It drives the same
// editor.Editor as the web server, so a strength change made here goes
// through the same preview and debounced commit.
package ui

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/wellradar/pkg/config"
	"github.com/vanderheijden86/wellradar/pkg/debug"
	"github.com/vanderheijden86/wellradar/pkg/editor"
	"github.com/vanderheijden86/wellradar/pkg/export"
	"github.com/vanderheijden86/wellradar/pkg/layout"
	"github.com/vanderheijden86/wellradar/pkg/metrics"
	"github.com/vanderheijden86/wellradar/pkg/model"
	"github.com/vanderheijden86/wellradar/pkg/sheet"
	"github.com/vanderheijden86/wellradar/pkg/watcher"
)

const nameWidth = 26

type mode int

const (
	modeList mode = iota
	modeRename
	modeTitle
	modeReport
)

// Options wires the terminal editor to its collaborators.
type Options struct {
	Editor      *editor.Editor
	Layout      layout.Config
	Sheet       sheet.Source
	Watcher     *watcher.Watcher // optional; reloads RadarFile on change
	RadarFile   string
	SnapshotDir string
	AssetBase   string
	Assets      fs.FS
	Scale       float64
}

// Model is the bubbletea model for the terminal editor.
type Model struct {
	opts Options
	ed   *editor.Editor

	radar   model.Radar
	preview []int
	cursor  int
	mode    mode

	input      textinput.Model
	report     viewport.Model
	mdRenderer *glamour.TermRenderer

	changes   <-chan uint64
	unsub     func()
	width     int
	height    int
	statusMsg string
	statusErr bool

	// writeClipboard is swapped in tests.
	writeClipboard func(string) error
}

// New creates the terminal editor model.
func New(opts Options) Model {
	if opts.Layout.MaxStrength == 0 {
		opts.Layout = layout.DefaultConfig()
	}
	if opts.SnapshotDir == "" {
		opts.SnapshotDir = "."
	}

	ti := textinput.New()
	ti.CharLimit = 80
	ti.Width = 40

	mdRenderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(72),
	)

	changes, unsub := opts.Editor.Subscribe()
	m := Model{
		opts:           opts,
		ed:             opts.Editor,
		input:          ti,
		report:         viewport.New(80, 20),
		mdRenderer:     mdRenderer,
		changes:        changes,
		unsub:          unsub,
		writeClipboard: clipboard.WriteAll,
	}
	m.refresh()
	return m
}

// Init starts listening for committed changes and, when configured, for
// radar file changes.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForRevision(m.changes)}
	if m.opts.Watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
	}
	return tea.Batch(cmds...)
}

// Close ends the editor subscription.
func (m Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
}

func (m *Model) refresh() {
	m.radar = m.ed.Snapshot()
	m.preview = m.ed.Preview()
	if m.cursor >= len(m.radar.Sectors) {
		m.cursor = max(0, len(m.radar.Sectors)-1)
	}
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusErr = isErr
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.report.Width = msg.Width
		m.report.Height = max(5, msg.Height-4)
		return m, nil

	case RevisionMsg:
		m.refresh()
		if m.mode == modeReport {
			m.renderReport()
		}
		return m, waitForRevision(m.changes)

	case FileChangedMsg:
		return m.reloadRadarFile()

	case SyncDoneMsg:
		m.refresh()
		if msg.Err != nil {
			m.setStatus(fmt.Sprintf("Sheet unavailable, fallback applied: %v", msg.Err), true)
		} else {
			m.setStatus("Synced from sheet", false)
		}
		return m, nil

	case SnapshotSavedMsg:
		if msg.Err != nil {
			m.setStatus(fmt.Sprintf("Snapshot failed: %v", msg.Err), true)
		} else {
			m.setStatus("Saved "+strings.Join(msg.Paths, ", "), false)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeRename, modeTitle:
			return m.updateInput(msg)
		case modeReport:
			return m.updateReport(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.radar.Sectors)
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		m.ed.Flush()
		m.Close()
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}

	case "left", "h", "right", "l":
		if n == 0 {
			break
		}
		delta := 1
		if key == "left" || key == "h" {
			delta = -1
		}
		if err := m.ed.PreviewStrength(m.cursor, m.preview[m.cursor]+delta); err != nil {
			m.setStatus(err.Error(), true)
		}
		m.preview = m.ed.Preview()

	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if n == 0 {
			break
		}
		v := int(key[0] - '0')
		if err := m.ed.SetStrength(m.cursor, v); err != nil {
			m.setStatus(err.Error(), true)
		}
		m.refresh()

	case "e":
		if n == 0 {
			break
		}
		m.mode = modeRename
		m.input.Placeholder = "Sector Name"
		m.input.SetValue(m.radar.Sectors[m.cursor].Name)
		return m, m.input.Focus()

	case "t":
		m.mode = modeTitle
		m.input.Placeholder = "Title"
		m.input.SetValue(m.radar.Title)
		return m, m.input.Focus()

	case "y":
		m.copySVG()

	case "s":
		m.setStatus("Saving snapshot…", false)
		return m, SaveSnapshotCmd(m.snapshotOptions())

	case "r":
		if m.opts.Sheet.URL == "" {
			m.setStatus("No sheet configured", true)
			break
		}
		m.setStatus("Syncing…", false)
		return m, SyncSheetCmd(m.opts.Sheet, m.ed)

	case "m":
		m.mode = modeReport
		m.renderReport()
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.mode = modeList
		return m, nil
	case "enter":
		val := strings.TrimSpace(m.input.Value())
		if m.mode == modeTitle {
			m.ed.SetTitle(val)
		} else if err := m.ed.RenameSector(m.cursor, val); err != nil {
			m.setStatus(err.Error(), true)
		}
		m.input.Blur()
		m.mode = modeList
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateReport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "m", "q":
		m.mode = modeList
		return m, nil
	}
	var cmd tea.Cmd
	m.report, cmd = m.report.Update(msg)
	return m, cmd
}

func (m *Model) frame() layout.Frame {
	return export.ComputeFrame(m.radar, m.opts.Layout)
}

func (m *Model) renderReport() {
	md := export.GenerateMarkdown(m.radar, m.frame())
	out := md
	if m.mdRenderer != nil {
		if rendered, err := m.mdRenderer.Render(md); err == nil {
			out = rendered
		}
	}
	m.report.SetContent(out)
}

func (m *Model) copySVG() {
	svg, err := export.SVGString(m.frame(), export.SVGOptions{
		AssetBase: m.opts.AssetBase,
		Title:     m.radar.Title,
		Padding:   export.DefaultPadding,
	})
	if err == nil {
		err = m.writeClipboard(svg)
	}
	if err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus("Copied SVG to clipboard", false)
}

func (m *Model) snapshotOptions() []export.RadarSnapshotOptions {
	base := filepath.Join(m.opts.SnapshotDir, "radar-"+time.Now().Format("20060102-150405"))
	common := export.RadarSnapshotOptions{
		Radar:     m.radar,
		Layout:    m.opts.Layout,
		Assets:    m.opts.Assets,
		AssetBase: m.opts.AssetBase,
		Scale:     m.opts.Scale,
	}
	svg, png := common, common
	svg.Path = base + ".svg"
	png.Path = base + ".png"
	return []export.RadarSnapshotOptions{svg, png}
}

func (m Model) reloadRadarFile() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.opts.Watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
	}
	if m.opts.RadarFile == "" {
		return m, tea.Batch(cmds...)
	}
	r, err := config.LoadRadar(m.opts.RadarFile)
	if err != nil {
		m.setStatus(fmt.Sprintf("Reload error: %v", err), true)
		return m, tea.Batch(cmds...)
	}
	m.ed.Load(r)
	metrics.FileReloads.Inc()
	debug.Log("ui: reloaded %s (%d sectors)", m.opts.RadarFile, len(r.Sectors))
	m.refresh()
	m.setStatus("Reloaded "+filepath.Base(m.opts.RadarFile), false)
	return m, tea.Batch(cmds...)
}

// View renders the editor.
func (m Model) View() string {
	if m.mode == modeReport {
		return m.report.View() + "\n" + HelpStyle.Render("↑/↓ scroll • esc back")
	}

	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(m.radar.Title))
	agg := layout.ComputeAggregate(m.preview, m.radar.Max())
	if len(m.radar.Sectors) > 0 {
		sb.WriteString("  " + HelpStyle.Render("overall") + " " + RenderPercent(agg.Percent))
	}
	sb.WriteString("\n\n")

	cfg := m.opts.Layout
	cfg.MaxStrength = m.radar.Max()
	for i, sec := range m.radar.Sectors {
		v := m.radar.StrengthAt(i)
		if i < len(m.preview) {
			v = m.preview[i]
		}
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		name := padRight(truncate(sec.Name, nameWidth), nameWidth)
		line := marker + name + " " + RenderBar(v, cfg) + " " + RenderPercent(layout.StrengthPercent(v, cfg.MaxStrength))
		if i < len(m.radar.Strengths) && v != m.radar.Strengths[i] {
			line += HelpStyle.Render(" •")
		}
		if i == m.cursor {
			line = SelectedStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	if len(m.radar.Sectors) == 0 {
		sb.WriteString(HelpStyle.Render("  no sectors") + "\n")
	}

	switch m.mode {
	case modeRename:
		sb.WriteString("\nRename: " + m.input.View() + "\n")
	case modeTitle:
		sb.WriteString("\nTitle: " + m.input.View() + "\n")
	}

	if m.statusMsg != "" {
		style := StatusStyle
		if m.statusErr {
			style = ErrorStyle
		}
		sb.WriteString("\n" + style.Render(m.statusMsg) + "\n")
	}
	sb.WriteString("\n" + HelpStyle.Render("←/→ strength • 0-9 set • e rename • t title • y copy svg • s snapshot • r sync • m report • q quit"))

	out := PanelStyle.Render(sb.String())
	if m.width > 0 {
		out = lipgloss.PlaceHorizontal(m.width, lipgloss.Left, out)
	}
	return out
}

// Run starts the terminal editor and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	m := New(opts)
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
