package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestTable_ToCSV(t *testing.T) {
	table := &Table{
		Headers: []string{"A", "B"},
		Rows:    [][]string{{"1,2", "3"}},
	}

	got, err := table.ToCSV()
	if err != nil {
		t.Fatalf("ToCSV failed: %v", err)
	}

	want := "A,B\r\n\"1,2\",3\r\n"
	if got != want {
		t.Errorf("ToCSV() = %q, want %q", got, want)
	}
}

func TestTable_ToCSV_QuotesAndNewlines(t *testing.T) {
	table := &Table{
		Headers: []string{"Name", "Note"},
		Rows: [][]string{
			{`say "hi"`, "line1\nline2"},
			{"plain", ""},
		},
	}

	got, err := table.ToCSV()
	if err != nil {
		t.Fatalf("ToCSV failed: %v", err)
	}

	want := "Name,Note\r\n\"say \"\"hi\"\"\",\"line1\nline2\"\r\nplain,\r\n"
	if got != want {
		t.Errorf("ToCSV() = %q, want %q", got, want)
	}
}

func TestTable_ToCSV_EmptyTable(t *testing.T) {
	table := NewTable([]string{"X", "Y"})

	got, err := table.ToCSV()
	if err != nil {
		t.Fatalf("ToCSV failed: %v", err)
	}

	if got != "X,Y\r\n" {
		t.Errorf("ToCSV() = %q, want header row only", got)
	}
}

func TestTable_EditCell(t *testing.T) {
	table := &Table{
		Headers: []string{"A", "B"},
		Rows:    [][]string{{"1", "2"}, {"3", "4"}},
	}

	if err := table.EditCell(1, 0, "30"); err != nil {
		t.Fatalf("EditCell failed: %v", err)
	}
	if table.Rows[1][0] != "30" {
		t.Errorf("cell = %q, want %q", table.Rows[1][0], "30")
	}
}

func TestTable_EditCell_OutOfRange(t *testing.T) {
	original := [][]string{{"1", "2"}}
	table := &Table{
		Headers: []string{"A", "B"},
		Rows:    [][]string{{"1", "2"}},
	}

	tests := []struct {
		name string
		row  int
		col  int
	}{
		{"row equals length", 1, 0},
		{"row negative", -1, 0},
		{"col equals width", 0, 2},
		{"col negative", 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := table.EditCell(tt.row, tt.col, "x")
			if !errors.Is(err, ErrIndexOutOfRange) {
				t.Errorf("EditCell(%d, %d) error = %v, want ErrIndexOutOfRange", tt.row, tt.col, err)
			}
			if !reflect.DeepEqual(table.Rows, original) {
				t.Errorf("table mutated on failed edit: %v", table.Rows)
			}
		})
	}
}

func TestTable_Normalize_RaggedRows(t *testing.T) {
	table := &Table{
		Headers: []string{"A", "B", "C"},
		Rows: [][]string{
			{"1"},
			{"1", "2", "3", "4"},
			{"1", "2", "3"},
		},
	}

	table.Normalize()

	for i, row := range table.Rows {
		if len(row) != 3 {
			t.Errorf("row %d has %d cells, want 3", i, len(row))
		}
	}
	if table.Rows[0][1] != "" || table.Rows[0][2] != "" {
		t.Errorf("short row not padded with empty strings: %v", table.Rows[0])
	}
	if !reflect.DeepEqual(table.Rows[1], []string{"1", "2", "3"}) {
		t.Errorf("long row not truncated: %v", table.Rows[1])
	}
}

func TestTable_Normalize_SynthesizesHeaders(t *testing.T) {
	table := &Table{
		Rows: [][]string{{"a", "b"}, {"c", "d", "e"}},
	}

	table.Normalize()

	want := []string{"Column 1", "Column 2", "Column 3"}
	if !reflect.DeepEqual(table.Headers, want) {
		t.Errorf("Headers = %v, want %v", table.Headers, want)
	}
	for i, row := range table.Rows {
		if len(row) != 3 {
			t.Errorf("row %d has %d cells, want 3", i, len(row))
		}
	}
}

func TestTable_Normalize_NilRows(t *testing.T) {
	table := &Table{Headers: []string{"A"}}

	table.Normalize()

	if table.Rows == nil {
		t.Error("Rows should be non-nil after Normalize")
	}
	if !table.IsEmpty() {
		t.Error("table with no rows should be empty")
	}
}
