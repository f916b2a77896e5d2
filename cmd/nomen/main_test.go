package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nomen/internal/config"
	"nomen/internal/filestore"
	"nomen/internal/metadata"
	"nomen/internal/reader"
	"nomen/internal/testsupport"
)

type cliEnv struct {
	cfg        *config.Config
	configPath string
	dir        string
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithSettings("CR1", "SRC", "Lib"))
	cfg.Logging.Level = "warn"
	data, err := config.Encode(cfg)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return &cliEnv{cfg: cfg, configPath: path, dir: t.TempDir()}
}

func runCLI(t *testing.T, env *cliEnv, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(append([]string{"--config", env.configPath}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestWriteReadVerifyRoundTrip(t *testing.T) {
	env := setupCLI(t)
	path := testsupport.WriteWAV(t, env.dir, "rumble.wav")

	out, errOut, code := runCLI(t, env, "write", path,
		"--set", "category=WEATHER",
		"--set", "fx_name=Thunder Rumble Low",
		"--custom", "SHOT=7",
	)
	if code != 0 {
		t.Fatalf("write exit %d: %s", code, errOut)
	}
	requireContains(t, out, "Wrote 3 field(s)")
	requireContains(t, out, "Created chunks: iXML, LIST/INFO")
	requireContains(t, out, "Verified")

	out, _, code = runCLI(t, env, "read", path)
	if code != 0 {
		t.Fatalf("read exit %d", code)
	}
	requireContains(t, out, "Sample rate: 44100 Hz")
	requireContains(t, out, "category: WEATHER")
	requireContains(t, out, "custom.SHOT: 7")
	requireContains(t, out, "Title: Thunder Rumble Low")

	out, _, code = runCLI(t, env, "read", "--json", path)
	if code != 0 {
		t.Fatalf("read --json exit %d", code)
	}
	var snap reader.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if v, _ := snap.Metadata.Get(metadata.FXName); v != "Thunder Rumble Low" {
		t.Fatalf("fx_name = %q", v)
	}

	out, _, code = runCLI(t, env, "verify", path, "--set", "category=WEATHER", "--custom", "SHOT=7")
	if code != 0 {
		t.Fatalf("verify exit %d: %s", code, out)
	}
	requireContains(t, out, "OK")

	out, errOut, code = runCLI(t, env, "verify", path, "--set", "category=AMBIENCE")
	if code != 1 {
		t.Fatalf("mismatched verify exit %d", code)
	}
	requireContains(t, out, "MISMATCH")
	requireContains(t, errOut, "[WRITE_FAILED]")
}

func TestWriteErrorsCarryCodes(t *testing.T) {
	env := setupCLI(t)
	path := testsupport.WriteWAV(t, env.dir, "a.wav")
	original, _ := os.ReadFile(path)

	cases := []struct {
		name string
		args []string
		code string
	}{
		{"unknown field", []string{"write", path, "--set", "colour=red"}, "[VALIDATION_ERROR]"},
		{"malformed assignment", []string{"write", path, "--set", "category"}, "[VALIDATION_ERROR]"},
		{"lowercase custom tag", []string{"write", path, "--custom", "shot=1"}, "[VALIDATION_ERROR]"},
		{"missing file", []string{"write", filepath.Join(env.dir, "gone.wav"), "--set", "category=X"}, "[FILE_NOT_FOUND]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, errOut, code := runCLI(t, env, tc.args...)
			if code != 1 {
				t.Fatalf("exit %d", code)
			}
			requireContains(t, errOut, tc.code)
		})
	}

	notWAV := filepath.Join(env.dir, "text.wav")
	testsupport.WriteFile(t, notWAV, 64)
	_, errOut, code := runCLI(t, env, "write", notWAV, "--set", "category=X")
	if code != 1 {
		t.Fatalf("exit %d", code)
	}
	requireContains(t, errOut, "[INVALID_WAV]")

	if now, _ := os.ReadFile(path); !bytes.Equal(now, original) {
		t.Fatal("file modified by a rejected write")
	}
}

func TestUnclassifiedErrorsHaveNoCode(t *testing.T) {
	env := setupCLI(t)
	_, errOut, code := runCLI(t, env, "bogus")
	if code != 1 {
		t.Fatalf("exit %d", code)
	}
	if !strings.HasPrefix(errOut, "error: ") {
		t.Fatalf("stderr = %q", errOut)
	}
}

func TestImportSaveAndList(t *testing.T) {
	env := setupCLI(t)
	path := testsupport.WriteWAV(t, env.dir, "wind.wav")

	out, errOut, code := runCLI(t, env, "import", path)
	if code != 0 {
		t.Fatalf("import exit %d: %s", code, errOut)
	}
	requireContains(t, out, "Imported "+path)

	out, errOut, code = runCLI(t, env, "save", path, "--set", "designer=TESTUSER")
	if code != 0 {
		t.Fatalf("save exit %d: %s", code, errOut)
	}
	requireContains(t, out, "Saved "+path)
	requireContains(t, out, "Verified: yes")

	out, _, code = runCLI(t, env, "records", "list", "--status", "saved", "--json")
	if code != 0 {
		t.Fatalf("records list exit %d", code)
	}
	var records []*filestore.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	if len(records) != 1 || records[0].Path != path {
		t.Fatalf("records = %+v", records)
	}
	if v, _ := records[0].Metadata.Get(metadata.CreatorID); v != "CR1" {
		t.Fatalf("creator_id = %q", v)
	}
	if v, _ := records[0].Metadata.Get(metadata.Library); v != "SRC Lib" {
		t.Fatalf("library = %q", v)
	}

	out, _, code = runCLI(t, env, "records", "delete", records[0].ID)
	if code != 0 {
		t.Fatalf("records delete exit %d", code)
	}
	requireContains(t, out, "Removed 1 record(s)")
	out, _, _ = runCLI(t, env, "records", "list")
	requireContains(t, out, "No records")
}

func TestRecordsEditRevertAndSave(t *testing.T) {
	env := setupCLI(t)
	path := testsupport.WriteWAV(t, env.dir, "rain.wav")
	out, _, code := runCLI(t, env, "import", path, "--json")
	if code != 0 {
		t.Fatalf("import exit %d", code)
	}
	var imported []*filestore.Record
	if err := json.Unmarshal([]byte(out), &imported); err != nil || len(imported) != 1 {
		t.Fatalf("decode import: %v %s", err, out)
	}
	id := imported[0].ID

	_, errOut, code := runCLI(t, env, "records", "edit", id)
	if code != 1 {
		t.Fatalf("empty edit exit %d", code)
	}
	requireContains(t, errOut, "[VALIDATION_ERROR]")

	out, errOut, code = runCLI(t, env, "records", "edit", id, "--set", "category=WEATHER", "--custom", "MOOD=calm")
	if code != 0 {
		t.Fatalf("edit exit %d: %s", code, errOut)
	}
	requireContains(t, out, "(modified)")
	requireContains(t, out, "Changed: category, custom_fields")

	out, errOut, code = runCLI(t, env, "records", "revert", id)
	if code != 0 {
		t.Fatalf("revert exit %d: %s", code, errOut)
	}
	requireContains(t, out, "Reverted "+path+" (unmodified)")

	if _, errOut, code = runCLI(t, env, "records", "edit", id, "--set", "category=WEATHER"); code != 0 {
		t.Fatalf("edit exit %d: %s", code, errOut)
	}
	out, errOut, code = runCLI(t, env, "records", "save", id, "missing-id")
	if code != 1 {
		t.Fatalf("records save exit %d", code)
	}
	requireContains(t, out, "Saved "+path)
	requireContains(t, out, "Failed missing-id [FILE_NOT_FOUND]")
	requireContains(t, errOut, "1 of 2 record(s) not saved")

	out, _, code = runCLI(t, env, "read", path)
	if code != 0 {
		t.Fatalf("read exit %d", code)
	}
	requireContains(t, out, "WEATHER")
}

func TestSaveRefusesChangedFile(t *testing.T) {
	env := setupCLI(t)
	path := testsupport.WriteWAV(t, env.dir, "a.wav")
	if _, _, code := runCLI(t, env, "import", path); code != 0 {
		t.Fatal("import failed")
	}
	if err := os.WriteFile(path, testsupport.BuildWAV(testsupport.WithFormat(48000, 2, 24)), 0o644); err != nil {
		t.Fatal(err)
	}
	_, errOut, code := runCLI(t, env, "save", path, "--set", "notes=x")
	if code != 1 {
		t.Fatalf("exit %d", code)
	}
	requireContains(t, errOut, "[FILE_CHANGED]")
}

func TestSaveCopyTo(t *testing.T) {
	env := setupCLI(t)
	src := testsupport.WriteWAV(t, env.dir, "src.wav")
	dest := filepath.Join(t.TempDir(), "dest.wav")

	out, errOut, code := runCLI(t, env, "save", src, "--set", "notes=copy", "--copy-to", dest)
	if code != 0 {
		t.Fatalf("save exit %d: %s", code, errOut)
	}
	requireContains(t, out, "Saved "+dest)
	if _, err := os.Stat(dest); err != nil {
		t.Fatal(err)
	}

	_, errOut, code = runCLI(t, env, "save", src, "--copy-to", filepath.Join(env.dir, "nope", "x.wav"))
	if code != 1 {
		t.Fatalf("exit %d", code)
	}
	requireContains(t, errOut, "[VALIDATION_ERROR]")
}

func TestScanCommand(t *testing.T) {
	env := setupCLI(t)
	testsupport.WriteWAV(t, env.dir, "a.wav")
	testsupport.WriteWAV(t, env.dir, "b.wav")
	testsupport.WriteFile(t, filepath.Join(env.dir, "readme.txt"), 16)

	out, errOut, code := runCLI(t, env, "scan", env.dir)
	if code != 0 {
		t.Fatalf("scan exit %d: %s", code, errOut)
	}
	requireContains(t, out, "Imported: 2")
	requireContains(t, out, "Skipped (not WAV): 1")

	out, _, _ = runCLI(t, env, "records", "list", "--dir", env.dir)
	requireContains(t, out, filepath.Join(env.dir, "a.wav"))
	requireContains(t, out, filepath.Join(env.dir, "b.wav"))
}

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLI(t)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, code := runCLI(t, env, "config", "init", "--path", target)
	if code != 0 {
		t.Fatalf("config init exit %d", code)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, _, code := runCLI(t, env, "config", "init", "--path", target); code != 1 {
		t.Fatal("second init should refuse to overwrite")
	}

	out, _, code = runCLI(t, env, "config", "show")
	if code != 0 {
		t.Fatalf("config show exit %d", code)
	}
	requireContains(t, out, "# "+env.configPath)
	requireContains(t, out, "buffer_size_kib = 1024")

	out, _, code = runCLI(t, env, "config", "validate")
	if code != 0 {
		t.Fatalf("config validate exit %d", code)
	}
	requireContains(t, out, "Lock directory:")
	requireContains(t, out, "[OK]")
	requireContains(t, out, "Configuration valid")
}
