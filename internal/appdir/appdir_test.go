package appdir_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oron-mozes/creo-sub001/internal/appdir"
)

func withTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(appdir.CreoDirEnv, dir)
	appdir.ResetCache()
	t.Cleanup(appdir.ResetCache)
	return dir
}

func TestDir_EnvOverride(t *testing.T) {
	want := withTempDir(t)

	got, err := appdir.Dir()
	if err != nil {
		t.Fatalf("dir: %v", err)
	}
	if got != want {
		t.Errorf("dir = %q, want %q", got, want)
	}
}

func TestPaths_DeriveFromDir(t *testing.T) {
	dir := withTempDir(t)

	settings, err := appdir.SettingsPath()
	if err != nil {
		t.Fatal(err)
	}
	if settings != filepath.Join(dir, appdir.SettingsFileName) {
		t.Errorf("settings path = %q", settings)
	}

	storeDir, err := appdir.StoreDir()
	if err != nil {
		t.Fatal(err)
	}
	if storeDir != filepath.Join(dir, appdir.StoreDirName) {
		t.Errorf("store dir = %q", storeDir)
	}

	logPath, err := appdir.LogPath()
	if err != nil {
		t.Fatal(err)
	}
	if logPath != filepath.Join(dir, appdir.LogFileName) {
		t.Errorf("log path = %q", logPath)
	}
}

func TestEnsureDir_CreatesStoreSubdir(t *testing.T) {
	dir := withTempDir(t)

	if err := appdir.EnsureDir(); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, appdir.StoreDirName))
	if err != nil {
		t.Fatalf("store subdir missing: %v", err)
	}
	if !info.IsDir() {
		t.Error("store path is not a directory")
	}
}

func TestResetCache_PicksUpNewEnv(t *testing.T) {
	first := withTempDir(t)
	if got, _ := appdir.Dir(); got != first {
		t.Fatalf("dir = %q, want %q", got, first)
	}

	second := t.TempDir()
	t.Setenv(appdir.CreoDirEnv, second)

	// The cached value stands until explicitly reset.
	if got, _ := appdir.Dir(); got != first {
		t.Errorf("dir = %q, cache should still return %q", got, first)
	}

	appdir.ResetCache()
	if got, _ := appdir.Dir(); got != second {
		t.Errorf("dir after reset = %q, want %q", got, second)
	}
}
