package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/nconklindev/bulksheet/internal/types"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		header      bool
		wantHeaders []string
		wantRows    int
	}{
		{"With header", "Name,Amount\nAlice,10\nBob,20\n", true, []string{"Name", "Amount"}, 2},
		{"Without header", "Alice,10\nBob,20\n", false, nil, 2},
		{"Ragged rows", "a,b,c\n1\n2,3\n", true, []string{"a", "b", "c"}, 2},
		{"Byte order mark", "\xef\xbb\xbf\"Name\",Amount\nAlice,1\n", true, []string{"Name", "Amount"}, 1},
		{"Header only", "Name,Amount\n", true, []string{"Name", "Amount"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ParseCSV(strings.NewReader(tt.input), Options{HasHeader: tt.header})
			if err != nil {
				t.Fatalf("ParseCSV() error = %v", err)
			}
			if strings.Join(ds.Headers, "|") != strings.Join(tt.wantHeaders, "|") {
				t.Errorf("Headers = %v; want %v", ds.Headers, tt.wantHeaders)
			}
			if len(ds.Rows) != tt.wantRows {
				t.Errorf("len(Rows) = %d; want %d", len(ds.Rows), tt.wantRows)
			}
		})
	}
}

func TestParseCSVEmpty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""), Options{HasHeader: true})
	if types.KindOf(err) != types.KindInputEmpty {
		t.Errorf("KindOf(err) = %v; want %v", types.KindOf(err), types.KindInputEmpty)
	}
}

func TestReadCSVFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.csv")
	if err := os.WriteFile(path, []byte("Name,City\n\"Smith, J\",Oslo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := Read(path, Options{HasHeader: true})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if ds.Source != path {
		t.Errorf("Source = %q; want %q", ds.Source, path)
	}
	if got := ds.Rows[0][0]; got != "Smith, J" {
		t.Errorf("Rows[0][0] = %q; want %q", got, "Smith, J")
	}
}

func TestReadUnsupported(t *testing.T) {
	if _, err := Read("data.json", Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestReadXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.xlsx")

	f := excelize.NewFile()
	rows := [][]any{
		{"Quarterly report"},
		{},
		{"Name", "Amount", "Due"},
		{"Alice", 10, "2024-01-01"},
		{"Bob", 20},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	ds, err := Read(path, Options{HasHeader: true, SkipTitle: true})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if strings.Join(ds.Headers, ",") != "Name,Amount,Due" {
		t.Errorf("Headers = %v; want detected header row", ds.Headers)
	}
	if len(ds.Rows) != 2 {
		t.Fatalf("len(Rows) = %d; want 2", len(ds.Rows))
	}
	if ds.Rows[1][1] != "20" {
		t.Errorf("Rows[1][1] = %q; want 20", ds.Rows[1][1])
	}

	raw, err := Read(path, Options{})
	if err != nil {
		t.Fatalf("Read() without header error = %v", err)
	}
	if len(raw.Rows) != len(rows) {
		t.Errorf("len(Rows) = %d; want %d", len(raw.Rows), len(rows))
	}
}

func TestReadXLSXHeaderIsFirstRow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.xlsx")

	f := excelize.NewFile()
	rows := [][]any{
		{"Name", "City"},
		{"Ann", "Oslo"},
		{"Bob", "Rome", "late payer"},
		{"Cid", "Bonn"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	ds, err := Read(path, Options{HasHeader: true})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if strings.Join(ds.Headers, ",") != "Name,City" {
		t.Errorf("Headers = %v; want [Name City]", ds.Headers)
	}
	if len(ds.Rows) != 3 {
		t.Fatalf("len(Rows) = %d; want 3", len(ds.Rows))
	}
	if ds.Rows[0][0] != "Ann" || ds.Rows[2][0] != "Cid" {
		t.Errorf("Rows = %v; want Ann, Bob, Cid in order", ds.Rows)
	}
}

func TestFindHeaderRow(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]string
		expected int
	}{
		{"First row", [][]string{{"Name", "Hours"}, {"Alice", "8"}}, 0},
		{"After title", [][]string{{"Report"}, {""}, {"Name", "Hours"}, {"Alice", "8"}}, 2},
		{"Numbers only", [][]string{{"1", "2"}, {"3", "4"}}, -1},
		{"Empty", nil, -1},
		{"Beyond limit", append(make([][]string, RowDetectionLimit), []string{"Name", "Hours"}), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findHeaderRow(tt.rows); got != tt.expected {
				t.Errorf("findHeaderRow() = %d; want %d", got, tt.expected)
			}
		})
	}
}

func TestLabels(t *testing.T) {
	ds := &types.Dataset{
		Headers: []string{"Name", " "},
		Rows:    [][]string{{"a", "b", "c"}},
	}
	want := []string{"Name", "Column 2", "Column 3"}
	got := Labels(ds)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Labels() = %v; want %v", got, want)
	}
}

func TestResolveColumn(t *testing.T) {
	ds := &types.Dataset{
		Headers: []string{"Name", "Amount"},
		Rows:    [][]string{{"a", "1", "x"}},
	}
	tests := []struct {
		ref     string
		want    int
		wantErr bool
	}{
		{"1", 0, false},
		{"3", 2, false},
		{"amount", 1, false},
		{"Column 3", 2, false},
		{"0", 0, true},
		{"", 0, true},
		{"Missing", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := ResolveColumn(ds, tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveColumn(%q) error = %v; wantErr %v", tt.ref, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ResolveColumn(%q) = %d; want %d", tt.ref, got, tt.want)
			}
		})
	}
}
