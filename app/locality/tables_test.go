package locality

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadTables_Default(t *testing.T) {
	tables, err := LoadTables("")
	if err != nil {
		t.Fatal(err)
	}

	if len(tables.Cities) == 0 {
		t.Error("Expected built-in cities")
	}
	if len(tables.Regions) == 0 {
		t.Error("Expected built-in regions")
	}

	for _, r := range tables.Regions {
		if r.Code != "" && r.Code != strings.ToUpper(r.Code) {
			t.Errorf("Expected upper case region code, got '%s'", r.Code)
		}
	}
}

func TestLoadTables_File(t *testing.T) {
	tempDir := t.TempDir()
	content := `
cities:
  - name: Halifax
    aliases: [dartmouth]
regions:
  - code: "NS"
    name: Nova Scotia
    city: Halifax
sources:
  - match: hfx
    city: Halifax
`
	path := filepath.Join(tempDir, "cities.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	tables, err := LoadTables(path)
	if err != nil {
		t.Fatal(err)
	}

	r := NewResolver(tables)
	if city, ok := r.Canonicalize("Dartmouth"); !ok || city != "Halifax" {
		t.Errorf("Expected alias to resolve to 'Halifax', got '%s'", city)
	}
	if city, ok := r.Canonicalize("Toronto"); ok {
		t.Errorf("Expected built-in cities to be replaced, got '%s'", city)
	}
}

func TestLoadTables_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"No cities", "cities: []\n", "no cities"},
		{"Unknown region city", "cities:\n  - name: Halifax\nregions:\n  - code: \"ON\"\n    city: Toronto\n", "unknown city"},
		{"Unknown source city", "cities:\n  - name: Halifax\nsources:\n  - match: to\n    city: Toronto\n", "unknown city"},
		{"Duplicate city", "cities:\n  - name: Halifax\n  - name: Halifax\n", "duplicate city"},
		{"Bad YAML", "cities: [\n", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cities.yml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			_, err := LoadTables(path)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Expected error containing '%s', got '%v'", tt.errText, err)
			}
		})
	}
}

func TestLoadTables_MissingFile(t *testing.T) {
	_, err := LoadTables(filepath.Join(t.TempDir(), "missing.yml"))
	if err == nil {
		t.Error("Expected error for missing file")
	}
}
