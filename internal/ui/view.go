package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nconklindev/bulksheet/internal/cellref"
	"github.com/nconklindev/bulksheet/internal/types"
)

func (m Model) View() string {
	switch m.state {
	case stateDataPicker:
		return m.viewPicker("Select the CSV or XLSX file holding one row per sheet", "q: quit")
	case stateData:
		return m.viewData()
	case stateTemplatePicker:
		return m.viewPicker("Select the template workbook", "s: skip and create an .ods file • q: quit")
	case stateSheetSelection:
		return m.viewSheets()
	case stateMapping:
		return m.viewMapping()
	case stateOutput:
		return m.viewOutput()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewPicker(subtitle, help string) string {
	var s strings.Builder

	title := TitleStyle.Render("▦ Bulksheet - one sheet per row")
	s.WriteString(lipgloss.JoinVertical(lipgloss.Left, title, SubtitleStyle.Render(subtitle)))
	s.WriteString("\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render(help))

	return s.String()
}

func (m Model) viewData() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▦ Data"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("File: %s", filepath.Base(m.dataPath))))
	s.WriteString("\n\n")

	header := "[ ]"
	if m.hasHeader {
		header = "[x]"
	}
	s.WriteString(fmt.Sprintf("First row is a header: %s\n", header))
	s.WriteString(fmt.Sprintf("Columns: %d   Rows: %d\n\n", len(m.labels), len(m.data.Rows)))

	for i, label := range m.labels {
		if i == mappingWindow {
			s.WriteString(MutedStyle.Render(fmt.Sprintf("… %d more", len(m.labels)-i)))
			s.WriteString("\n")
			break
		}
		sample := ""
		if len(m.data.Rows) > 0 && i < len(m.data.Rows[0]) {
			sample = m.data.Rows[0][i]
		}
		s.WriteString(fmt.Sprintf("%-24s %s\n", truncate(label, 24), MutedStyle.Render(truncate(sample, 32))))
	}

	s.WriteString("\n")
	if len(m.data.Rows) == 0 {
		s.WriteString(ErrorStyle.Render(types.Message(types.KindInputEmpty)))
		s.WriteString("\n")
	}
	s.WriteString(HelpStyle.Render("h: toggle header • enter: continue • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewSheets() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▦ Template Sheet"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("Template: %s", filepath.Base(m.templatePath))))
	s.WriteString("\n\n")

	for i, name := range m.sheets {
		if m.cursor == i {
			s.WriteString(SelectedStyle.Render("> " + name))
		} else {
			s.WriteString(UnselectedStyle.Render("  " + name))
		}
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewMapping() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▦ Assign Columns to Cells"))
	s.WriteString("\n")
	target := "new .ods file"
	if m.templatePath != "" {
		target = fmt.Sprintf("%s › %s", filepath.Base(m.templatePath), m.sheet)
	}
	s.WriteString(SubtitleStyle.Render(target))
	s.WriteString("\n\n")

	start := 0
	if m.focus >= mappingWindow {
		start = m.focus - mappingWindow + 1
	}
	end := min(start+mappingWindow, len(m.inputs))
	for i := start; i < end; i++ {
		label := truncate(m.labels[i], 24)
		line := fmt.Sprintf("%-24s %s", label, m.inputs[i].View())
		if cell := strings.TrimSpace(m.inputs[i].Value()); cell != "" {
			if _, ok := cellref.Decode(cellref.Normalize(cell)); !ok {
				line += " " + ErrorStyle.Render("✗ invalid cell")
			}
		}
		if i == m.focus {
			line = SelectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		s.WriteString(line)
		s.WriteString("\n")
	}
	if len(m.inputs) > mappingWindow {
		s.WriteString(MutedStyle.Render(fmt.Sprintf("column %d of %d", m.focus+1, len(m.inputs))))
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("↑/↓/tab: move • type a cell like B4 • enter: continue • ctrl+c: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewOutput() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▦ Output"))
	s.WriteString("\n\n")

	if m.report != nil {
		for _, e := range m.report.Entries {
			line := fmt.Sprintf("%-5s %-20s %q → %q", e.Cell, truncate(e.Label, 20), truncate(e.Current, 16), truncate(e.Next, 16))
			if e.Problem != "" {
				line = MutedStyle.Render(line + " (" + e.Problem + ")")
			}
			s.WriteString(line)
			s.WriteString("\n")
		}
		s.WriteString("\n")
	}

	s.WriteString(fmt.Sprintf("%d sheet(s) will be generated.\n\n", len(m.data.Rows)))
	s.WriteString(m.output.View())
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("enter: generate • esc: back • ctrl+c: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▦ Generating..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Writing %d sheet(s)...", len(m.data.Rows)))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Done!"))
	s.WriteString("\n\n")

	maxPathLen := max(m.width-20, 30)
	outputPath := m.result.Output
	if len(outputPath) > maxPathLen {
		outputPath = "..." + outputPath[len(outputPath)-maxPathLen+3:]
	}

	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s\n", outputPath)))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Sheets written: %d\n", m.result.Sheets))
	if n := len(m.result.Names); n > 0 {
		s.WriteString(fmt.Sprintf("First: %s   Last: %s\n", m.result.Names[0], m.result.Names[n-1]))
	}
	for _, r := range m.result.Rejected {
		s.WriteString(MutedStyle.Render("skipped " + r))
		s.WriteString("\n")
	}
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("enter: exit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(types.Describe(m.err))
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("enter: exit"))

	return BoxStyle.Render(s.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
