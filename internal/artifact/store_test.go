package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/valpere/codextran/internal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "output"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleUnits() []internal.ChapterUnit {
	return []internal.ChapterUnit{
		{Number: 1, Title: "First Chapter", Slug: "1-first-chapter", Status: internal.StatusPending},
		{Number: 2, Title: "Second Chapter", Slug: "2-second-chapter", Status: internal.StatusPending},
	}
}

func TestOpen_CreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")
	s, err := Open(root)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	for _, dir := range []string{"chapters_src", "chapters_tgt", "render"} {
		if _, err := os.Stat(filepath.Join(root, dir)); err != nil {
			t.Errorf("expected directory %s: %v", dir, err)
		}
	}
}

func TestStore_SaveAndLoadUnits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveUnits(ctx, sampleUnits()); err != nil {
		t.Fatalf("SaveUnits failed: %v", err)
	}

	units, err := s.LoadUnits(ctx)
	if err != nil {
		t.Fatalf("LoadUnits failed: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[0].Number != 1 || units[1].Number != 2 {
		t.Errorf("units not in number order: %+v", units)
	}
	if units[0].Status != internal.StatusPending {
		t.Errorf("expected pending status, got %s", units[0].Status)
	}
}

func TestStore_SaveUnits_KeepsStatusOnUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveUnits(ctx, sampleUnits()); err != nil {
		t.Fatalf("SaveUnits failed: %v", err)
	}
	if err := s.SetStatus(ctx, 1, internal.StatusExtracted); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	// Re-run segmentation: status must survive the upsert.
	if err := s.SaveUnits(ctx, sampleUnits()); err != nil {
		t.Fatalf("second SaveUnits failed: %v", err)
	}
	units, err := s.LoadUnits(ctx)
	if err != nil {
		t.Fatalf("LoadUnits failed: %v", err)
	}
	if units[0].Status != internal.StatusExtracted {
		t.Errorf("status reset by upsert: %s", units[0].Status)
	}
}

func TestStore_StatusTransitions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveUnits(ctx, sampleUnits()); err != nil {
		t.Fatalf("SaveUnits failed: %v", err)
	}

	failed := internal.FailedStatus(internal.StageTranslate)
	if failed != "failed@translate" {
		t.Fatalf("unexpected failed status format: %s", failed)
	}
	if err := s.SetStatus(ctx, 2, failed); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	units, _ := s.LoadUnits(ctx)
	if units[1].Status != failed {
		t.Errorf("expected %s, got %s", failed, units[1].Status)
	}
}

func TestStore_KeywordsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveUnits(ctx, sampleUnits()); err != nil {
		t.Fatalf("SaveUnits failed: %v", err)
	}

	pairs := []internal.KeywordPair{
		{SourcePhrase: "red wine", TargetPhrase: "vinho tinto", Score: 4.0, Offset: 0},
		{SourcePhrase: "red meat", TargetPhrase: "carne vermelha", Score: 4.0, Offset: 13},
	}
	if err := s.SaveKeywords(ctx, 1, pairs); err != nil {
		t.Fatalf("SaveKeywords failed: %v", err)
	}

	units, err := s.LoadUnits(ctx)
	if err != nil {
		t.Fatalf("LoadUnits failed: %v", err)
	}
	got := units[0].Keywords
	if len(got) != 2 {
		t.Fatalf("expected 2 keywords, got %d", len(got))
	}
	if got[0].SourcePhrase != "red wine" || got[1].TargetPhrase != "carne vermelha" {
		t.Errorf("keyword order or content wrong: %+v", got)
	}

	// Replacing must not accumulate.
	if err := s.SaveKeywords(ctx, 1, pairs[:1]); err != nil {
		t.Fatalf("SaveKeywords replace failed: %v", err)
	}
	units, _ = s.LoadUnits(ctx)
	if len(units[0].Keywords) != 1 {
		t.Errorf("expected keyword list replaced, got %d entries", len(units[0].Keywords))
	}
}

func TestStore_ArtifactFreshness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := sampleUnits()[0]

	path := s.SourceTextPath(u)
	if err := WriteFileAtomic(path, []byte("cleaned text")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	hash := InputHash("raw text")
	if err := s.RecordArtifact(ctx, internal.StageExtract, u.Number, path, hash); err != nil {
		t.Fatalf("RecordArtifact failed: %v", err)
	}

	valid, err := s.ValidArtifact(ctx, internal.StageExtract, u.Number, hash)
	if err != nil || !valid {
		t.Errorf("expected valid artifact, got valid=%v err=%v", valid, err)
	}

	// Different inputs mark it stale.
	valid, err = s.ValidArtifact(ctx, internal.StageExtract, u.Number, InputHash("changed raw text"))
	if err != nil || valid {
		t.Errorf("expected stale artifact for changed inputs, got valid=%v err=%v", valid, err)
	}

	// A missing file invalidates the record.
	os.Remove(path)
	valid, err = s.ValidArtifact(ctx, internal.StageExtract, u.Number, hash)
	if err != nil || valid {
		t.Errorf("expected invalid artifact after file removal, got valid=%v err=%v", valid, err)
	}
}

func TestStore_ValidArtifact_Unrecorded(t *testing.T) {
	s := newTestStore(t)
	valid, err := s.ValidArtifact(context.Background(), internal.StageTranslate, 42, InputHash("x"))
	if err != nil || valid {
		t.Errorf("expected no artifact, got valid=%v err=%v", valid, err)
	}
}

func TestStore_ClearArtifactsAndStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveUnits(ctx, sampleUnits()); err != nil {
		t.Fatalf("SaveUnits failed: %v", err)
	}
	for _, u := range sampleUnits() {
		if err := s.RecordArtifact(ctx, internal.StageExtract, u.Number, s.SourceTextPath(u), InputHash(u.Title)); err != nil {
			t.Fatalf("RecordArtifact failed: %v", err)
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Units != 2 || stats.Artifacts != 2 || stats.PerStage["extract"] != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	n, err := s.ClearArtifacts(ctx)
	if err != nil || n != 2 {
		t.Fatalf("ClearArtifacts = %d, %v", n, err)
	}

	valid, _ := s.ValidArtifact(ctx, internal.StageExtract, 1, InputHash("First Chapter"))
	if valid {
		t.Error("artifact should be invalid after clear")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unit.txt")

	if err := WriteFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("unexpected content: %q", data)
	}

	// No temp files may remain.
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestInputHash(t *testing.T) {
	if InputHash("a", "b") == InputHash("ab") {
		t.Error("part boundaries must affect the hash")
	}
	if InputHash("x") != InputHash("x") {
		t.Error("hash must be deterministic")
	}
}
