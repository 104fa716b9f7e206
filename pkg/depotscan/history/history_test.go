package history

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/afero"
)

func newTestHistory(t *testing.T) (*History, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	h, err := New(fs, "/data/history")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return h, fs
}

func TestNew(t *testing.T) {
	t.Parallel()

	if _, err := New(afero.NewMemMapFs(), ""); err == nil {
		t.Fatal("New() error = nil, want error for empty directory")
	}
}

func TestHistory_EnsureDir(t *testing.T) {
	t.Parallel()
	h, fs := newTestHistory(t)

	if err := h.EnsureDir(); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	if ok, _ := afero.DirExists(fs, "/data/history"); !ok {
		t.Fatal("directory not created")
	}
}

func TestHistory_LogScan(t *testing.T) {
	t.Parallel()
	h, fs := newTestHistory(t)

	records := []types.ManifestRecord{
		{DepotID: "481", ManifestID: "111", DecryptionKey: "k", Size: 100, Path: "/s/depotcache/481_111.manifest"},
		{DepotID: "482", ManifestID: "222", Size: 50},
	}
	entry, err := h.LogScan("480", "Spacewar", records)
	if err != nil {
		t.Fatalf("LogScan() error = %v", err)
	}

	if _, err := uuid.Parse(entry.ID); err != nil {
		t.Errorf("ID %q is not a uuid: %v", entry.ID, err)
	}
	if entry.Operation != OpScan {
		t.Errorf("Operation = %q, want %q", entry.Operation, OpScan)
	}
	want := Summary{Apps: 1, Manifests: 2, Keyed: 1, Bytes: 150}
	if entry.Summary != want {
		t.Errorf("Summary = %+v, want %+v", entry.Summary, want)
	}

	exists, _ := afero.Exists(fs, "/data/history/"+entry.ID+".json")
	if !exists {
		t.Error("entry file not written")
	}
	tmp, _ := afero.Exists(fs, "/data/history/"+entry.ID+".json.tmp")
	if tmp {
		t.Error("temp file left behind")
	}
}

func TestHistory_ListAndGet(t *testing.T) {
	t.Parallel()
	h, _ := newTestHistory(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		h.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		e, err := h.LogExport("10", "Game", "/out/Game", nil)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, e.ID)
	}

	entries, err := h.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("List() returned %d entries, want 3", len(entries))
	}
	if entries[0].ID != ids[2] {
		t.Errorf("newest first: got %s, want %s", entries[0].ID, ids[2])
	}

	limited, _ := h.List(2)
	if len(limited) != 2 {
		t.Errorf("List(2) returned %d", len(limited))
	}

	got, err := h.Get(ids[1])
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.OutputDir != "/out/Game" || got.Operation != OpExport {
		t.Errorf("unexpected entry: %+v", got)
	}

	got, err = h.Get(ids[0][:13])
	if err != nil {
		t.Fatalf("Get(prefix) error = %v", err)
	}
	if got.ID != ids[0] {
		t.Errorf("Get(prefix) = %s, want %s", got.ID, ids[0])
	}

	if _, err := h.Get("zzzz"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrEntryNotFound", err)
	}
}

func TestHistory_ListEmpty(t *testing.T) {
	t.Parallel()
	h, _ := newTestHistory(t)

	entries, err := h.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("List() = %v, want empty slice", entries)
	}
}

func TestHistory_SkipsCorruptFiles(t *testing.T) {
	t.Parallel()
	h, fs := newTestHistory(t)

	if _, err := h.LogScan("10", "", nil); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/data/history/bad.json", []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := h.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("List() returned %d entries, want 1", len(entries))
	}
}

func TestHistory_Cleanup(t *testing.T) {
	t.Parallel()
	h, _ := newTestHistory(t)

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now.AddDate(0, 0, -40) }
	if _, err := h.LogScan("1", "old", nil); err != nil {
		t.Fatal(err)
	}
	h.now = func() time.Time { return now.AddDate(0, 0, -2) }
	recent, err := h.LogScan("2", "recent", nil)
	if err != nil {
		t.Fatal(err)
	}

	h.now = func() time.Time { return now }
	removed, err := h.Cleanup(30)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("Cleanup removed %d, want 1", removed)
	}

	entries, _ := h.List(0)
	if len(entries) != 1 || entries[0].ID != recent.ID {
		t.Errorf("unexpected remaining entries: %+v", entries)
	}
}
