package contextref

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestLoadPluginJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	data := `{"links":[
		{"link":"Project Atlas","timestamp":1736067600000,"source":"Work.md"},
		{"link":"  ","timestamp":1736067500000,"source":"x.md"},
		{"link":"Anna","timestamp":1736067000000,"source":"People.md"}
	]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	refs, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d refs", len(refs))
	}
	if refs[0].Text != "Project Atlas" || refs[0].Source != "Work.md" {
		t.Errorf("first = %+v", refs[0])
	}
	if refs[0].Timestamp.UnixMilli() != 1736067600000 {
		t.Errorf("timestamp = %v", refs[0].Timestamp)
	}
}

func TestLoadBareArrayCapsAtMax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.json")
	data := "["
	for i := 0; i < MaxReferences+20; i++ {
		if i > 0 {
			data += ","
		}
		data += fmt.Sprintf(`{"link":"term%d","timestamp":%d}`, i, 1000+i)
	}
	data += "]"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	refs, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(refs) != MaxReferences {
		t.Fatalf("got %d refs", len(refs))
	}
	if refs[0].Text != fmt.Sprintf("term%d", MaxReferences+19) {
		t.Errorf("newest = %s", refs[0].Text)
	}
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Source", "Link", "Timestamp"},
		{"Work.md", "Project Atlas", "2025-01-05T09:00:00Z"},
		{"People.md", "Anna", "1736067000000"},
		{"Empty.md", "", "2025-01-05"},
	}
	for i, r := range rows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cellRef, &r); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	refs, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d refs: %+v", len(refs), refs)
	}
	if refs[0].Text != "Project Atlas" || refs[0].Source != "Work.md" {
		t.Errorf("newest = %+v", refs[0])
	}
	if refs[1].Text != "Anna" || refs[1].Timestamp.IsZero() {
		t.Errorf("second = %+v", refs[1])
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	if _, err := LoadFile("links.csv"); err == nil {
		t.Error("expected error")
	}
}
