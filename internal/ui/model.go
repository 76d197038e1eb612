// Package ui is the interactive wizard: pick a data file, a template and its
// sheet, assign columns to cells, and generate.
package ui

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nconklindev/bulksheet/internal/dataset"
	"github.com/nconklindev/bulksheet/internal/preview"
	"github.com/nconklindev/bulksheet/internal/types"
)

type state int

const (
	stateDataPicker state = iota
	stateData
	stateTemplatePicker
	stateSheetSelection
	stateMapping
	stateOutput
	stateProcessing
	stateComplete
	stateError
)

// mappingWindow is how many column rows the mapping screen shows at once.
const mappingWindow = 12

type Model struct {
	state      state
	filepicker filepicker.Model
	width      int
	height     int

	dataPath  string
	hasHeader bool
	data      *types.Dataset
	labels    []string

	templatePath string
	sheets       []string
	sheet        string
	cursor       int

	inputs []textinput.Model
	focus  int

	output textinput.Model
	report *preview.Report

	result       *types.Result
	err          error
	progress     progress.Model
	progressChan chan float64
	resultChan   chan generateResultMsg
}

type dataLoadedMsg struct {
	data *types.Dataset
	err  error
}

type sheetsLoadedMsg struct {
	sheets []string
	err    error
}

type previewMsg struct {
	report *preview.Report
	err    error
}

type generateResultMsg struct {
	result *types.Result
	err    error
}

type progressMsg float64

type waitForProgressMsg struct{}

func InitialModel() Model {
	fp := filepicker.New()
	fp.AllowedTypes = dataTypes
	fp.CurrentDirectory, _ = os.Getwd()

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(colorAccent)
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(colorLight)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(colorLight)
	fp.Styles.File = lipgloss.NewStyle().Foreground(colorText)
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(colorMuted)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(colorMuted)

	out := textinput.New()
	out.Prompt = "Output: "
	out.CharLimit = 4096
	out.Width = 60

	return Model{
		state:      stateDataPicker,
		filepicker: fp,
		hasHeader:  true,
		output:     out,
		progress:   progress.New(progress.WithGradient("#2E9E5B", "#7BD88F")),
	}
}

var (
	dataTypes     = []string{".csv", ".txt", ".xlsx", ".xlsm"}
	templateTypes = []string{".xlsx", ".xlsm"}
)

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filepicker.SetHeight(max(msg.Height-14, 5))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state == stateProcessing {
			return m, nil
		}
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}

	case dataLoadedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.data = msg.data
		m.labels = dataset.Labels(msg.data)
		m.state = stateData
		return m, nil

	case sheetsLoadedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.sheets = msg.sheets
		m.cursor = 0
		m.state = stateSheetSelection
		return m, nil

	case previewMsg:
		// A failed preview only hides the table; generation reports the
		// real error.
		if msg.err == nil {
			m.report = msg.report
		}
		return m, nil

	case generateResultMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.result = msg.result
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	return m.updateComponents(msg)
}

// handleKey processes keys for the current screen. It reports false when the
// key should fall through to the focused component.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	key := msg.String()
	switch m.state {
	case stateDataPicker:
		if key == "q" {
			return m, tea.Quit, true
		}

	case stateTemplatePicker:
		switch key {
		case "q":
			return m, tea.Quit, true
		case "s":
			// No template: synthesize an OpenDocument file instead.
			m.templatePath = ""
			m.sheet = ""
			next, cmd := m.startMapping()
			return next, cmd, true
		}

	case stateData:
		switch key {
		case "q":
			return m, tea.Quit, true
		case "h":
			m.hasHeader = !m.hasHeader
			return m, loadData(m.dataPath, m.hasHeader), true
		case "enter":
			if len(m.data.Rows) == 0 {
				return m, nil, true
			}
			m.state = stateTemplatePicker
			m.filepicker.AllowedTypes = templateTypes
			return m, m.filepicker.Init(), true
		}

	case stateSheetSelection:
		switch key {
		case "q":
			return m, tea.Quit, true
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.sheets)-1 {
				m.cursor++
			}
		case "enter":
			if len(m.sheets) == 0 {
				return m, nil, true
			}
			m.sheet = m.sheets[m.cursor]
			next, cmd := m.startMapping()
			return next, cmd, true
		}
		return m, nil, true

	case stateMapping:
		switch key {
		case "up", "shift+tab":
			return m.focusInput(m.focus - 1), nil, true
		case "down", "tab":
			return m.focusInput(m.focus + 1), nil, true
		case "enter":
			if len(m.request().Mappings) == 0 {
				return m, nil, true
			}
			next, cmd := m.startOutput()
			return next, cmd, true
		}

	case stateOutput:
		switch key {
		case "esc":
			m.output.Blur()
			m.state = stateMapping
			return m.focusInput(m.focus), nil, true
		case "enter":
			if strings.TrimSpace(m.output.Value()) == "" {
				return m, nil, true
			}
			m.state = stateProcessing
			next, cmd := m.generate()
			return next, cmd, true
		}

	case stateComplete, stateError:
		switch key {
		case "q", "enter", "esc":
			return m, tea.Quit, true
		}
		return m, nil, true
	}
	return m, nil, false
}

func (m Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateDataPicker, stateTemplatePicker:
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			if m.state == stateDataPicker {
				m.dataPath = path
				return m, loadData(path, m.hasHeader)
			}
			m.templatePath = path
			return m, loadSheets(path)
		}
		return m, cmd

	case stateMapping:
		if len(m.inputs) == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd

	case stateOutput:
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}
	return m, nil
}

// startMapping builds one cell input per data column, keeping values typed
// earlier.
func (m Model) startMapping() (Model, tea.Cmd) {
	inputs := make([]textinput.Model, len(m.labels))
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = "cell, e.g. B4"
		in.CharLimit = 16
		in.Width = 12
		in.Prompt = ""
		if i < len(m.inputs) {
			in.SetValue(m.inputs[i].Value())
		}
		inputs[i] = in
	}
	m.inputs = inputs
	m.state = stateMapping
	m.focus = 0
	if len(m.inputs) == 0 {
		return m, nil
	}
	return m, m.inputs[0].Focus()
}

func (m Model) focusInput(i int) Model {
	if len(m.inputs) == 0 {
		return m
	}
	i = min(max(i, 0), len(m.inputs)-1)
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[i].Focus()
	return m
}

func (m Model) startOutput() (Model, tea.Cmd) {
	if m.focus < len(m.inputs) {
		m.inputs[m.focus].Blur()
	}
	if m.output.Value() == "" {
		m.output.SetValue(defaultOutput(m.dataPath, m.templatePath == ""))
	}
	m.state = stateOutput
	m.report = nil

	cmds := []tea.Cmd{m.output.Focus()}
	if m.templatePath != "" {
		cmds = append(cmds, buildPreview(m.templatePath, m.sheet, m.data, m.request().Mappings))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) fail(err error) (Model, tea.Cmd) {
	m.err = err
	m.state = stateError
	return m, nil
}

// request assembles the generation request from the wizard's answers.
func (m Model) request() types.Request {
	req := types.Request{
		Template: m.templatePath,
		Sheet:    m.sheet,
		Output:   strings.TrimSpace(m.output.Value()),
		Format:   "xlsx",
	}
	if m.data != nil {
		req.Rows = m.data.Rows
	}
	if m.templatePath == "" {
		req.Format = "ods"
	}
	for i, in := range m.inputs {
		if cell := strings.TrimSpace(in.Value()); cell != "" {
			req.Mappings = append(req.Mappings, types.ColumnMapping{Column: i, Cell: cell})
		}
	}
	return req
}

// defaultOutput places the result next to the data file.
func defaultOutput(dataPath string, ods bool) string {
	ext := ".xlsx"
	if ods {
		ext = ".ods"
	}
	base := strings.TrimSuffix(dataPath, filepath.Ext(dataPath))
	return base + "_generated" + ext
}
