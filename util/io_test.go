package util

import (
	"os"
	"path/filepath"
	"testing"
)

type CSVEdgeRow struct {
	EdgeID int     `csv:"edge_id"`
	Aqi    float64 `csv:"aqi"`
	Tag    string  `csv:"tag"`
}

func TestCSVSimple(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "simple.csv")
	content := "edge_id,aqi,tag\n0,1.5,a\n4,2.25,b\n7,1.0,c\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	i := 0
	for row := range ReadCSVFromFile[CSVEdgeRow](file, ',') {
		if i == 0 {
			if row.EdgeID != 0 || row.Aqi != 1.5 || row.Tag != "a" {
				t.Errorf("row 0 = %v; want {0 1.5 a}", row)
			}
		} else if i == 1 {
			if row.EdgeID != 4 || row.Aqi != 2.25 || row.Tag != "b" {
				t.Errorf("row 1 = %v; want {4 2.25 b}", row)
			}
		} else if i == 2 {
			if row.EdgeID != 7 || row.Aqi != 1.0 || row.Tag != "c" {
				t.Errorf("row 2 = %v; want {7 1.0 c}", row)
			}
		} else {
			t.Errorf("too many rows")
		}
		i++
	}
	if i != 3 {
		t.Errorf("read %v rows; want 3", i)
	}
}

func TestCSVMissingCells(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "missing.csv")
	content := "edge_id,aqi\n3,\n5,2.0\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	i := 0
	for row := range ReadCSVFromFile[CSVEdgeRow](file, ',') {
		if i == 0 {
			if row.EdgeID != 3 || row.Aqi != 0 || row.Tag != "" {
				t.Errorf("row 0 = %v; want zero aqi and tag", row)
			}
		} else if i == 1 {
			if row.EdgeID != 5 || row.Aqi != 2.0 {
				t.Errorf("row 1 = %v; want {5 2.0}", row)
			}
		}
		i++
	}
	if i != 2 {
		t.Errorf("read %v rows; want 2", i)
	}
}
