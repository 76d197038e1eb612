package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nconklindev/bulksheet/internal/assembler"
	"github.com/nconklindev/bulksheet/internal/dataset"
	"github.com/nconklindev/bulksheet/internal/preview"
	"github.com/nconklindev/bulksheet/internal/types"
)

func loadData(path string, hasHeader bool) tea.Cmd {
	return func() tea.Msg {
		data, err := dataset.Read(path, dataset.Options{HasHeader: hasHeader})
		return dataLoadedMsg{data: data, err: err}
	}
}

func loadSheets(path string) tea.Cmd {
	return func() tea.Msg {
		sheets, err := preview.Sheets(path)
		return sheetsLoadedMsg{sheets: sheets, err: err}
	}
}

func buildPreview(path, sheet string, data *types.Dataset, ms []types.ColumnMapping) tea.Cmd {
	return func() tea.Msg {
		report, err := preview.Build(path, sheet, data, ms)
		return previewMsg{report: report, err: err}
	}
}

func (m Model) generate() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan generateResultMsg, 1)

	req := m.request()
	progressChan := m.progressChan
	resultChan := m.resultChan

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				result, err := assembler.Generate(req, assembler.Options{Progress: progressChan})
				resultChan <- generateResultMsg{result: result, err: err}

				close(progressChan)
				close(resultChan)
			}()
			return waitForProgressMsg{}
		},
		m.progress.Init(),
	)

	return m, cmd
}

func waitForProgress(progressChan chan float64, resultChan chan generateResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			res, ok := <-resultChan
			if ok {
				return res
			}
			return nil
		}

		return progressMsg(p)
	}
}
