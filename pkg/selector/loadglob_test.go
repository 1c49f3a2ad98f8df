package selector

import (
	"testing"
	"testing/fstest"
)

func TestLoadMapGlob_MergesMatchedFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"selectors/login.yaml": &fstest.MapFile{Data: []byte(`
submit-button:
  tries:
    - type: id
      id: submit
`)},
		"selectors/dashboard.yaml": &fstest.MapFile{Data: []byte(`
dashboard-heading:
  tries:
    - type: css
      css: h1.dashboard
`)},
		"other/ignored.yaml": &fstest.MapFile{Data: []byte(`not-matched: {}`)},
	}

	m, err := LoadMapGlob(fsys, "selectors/**/*.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 2 {
		t.Fatalf("expected 2 merged keys, got %d: %v", len(m), m)
	}
	if _, ok := m["submit-button"]; !ok {
		t.Error("expected submit-button key from login.yaml")
	}
	if _, ok := m["dashboard-heading"]; !ok {
		t.Error("expected dashboard-heading key from dashboard.yaml")
	}
}

func TestLoadMapGlob_DuplicateKeyAcrossFilesErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": &fstest.MapFile{Data: []byte(`
shared-key:
  tries:
    - type: id
      id: a
`)},
		"b.yaml": &fstest.MapFile{Data: []byte(`
shared-key:
  tries:
    - type: id
      id: b
`)},
	}
	if _, err := LoadMapGlob(fsys, "*.yaml"); err == nil {
		t.Fatal("expected an error for a key defined in two matched files")
	}
}

func TestLoadMapGlob_InvalidPatternErrors(t *testing.T) {
	fsys := fstest.MapFS{}
	if _, err := LoadMapGlob(fsys, "["); err == nil {
		t.Fatal("expected an error for an invalid glob pattern")
	}
}
