package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"nomen/internal/config"
	"nomen/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if r := CheckFreeSpace("vol", dir, 1); !r.Passed {
		t.Fatalf("expected pass with a 1 byte minimum: %s", r.Detail)
	}
	if r := CheckFreeSpace("vol", dir, ^uint64(0)); r.Passed {
		t.Fatal("expected failure with an impossible minimum")
	}
	if r := CheckFreeSpace("vol", filepath.Join(dir, "missing"), 1); r.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckIdentity(t *testing.T) {
	cases := []struct {
		settings config.Settings
		passed   bool
	}{
		{config.Settings{}, false},
		{config.Settings{CreatorID: "CR"}, false},
		{config.Settings{SourceID: "SRC"}, false},
		{config.Settings{CreatorID: "CR", SourceID: "SRC"}, true},
	}
	for _, tc := range cases {
		if got := CheckIdentity(tc.settings); got.Passed != tc.passed {
			t.Errorf("CheckIdentity(%+v) passed = %v", tc.settings, got.Passed)
		}
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

func TestRunAll_PreparedConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSettings("CR", "SRC", ""))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	for _, r := range RunAll(cfg) {
		if r.Name == "Data volume" {
			continue
		}
		if !r.Passed {
			t.Errorf("%s failed: %s", r.Name, r.Detail)
		}
	}
}
