package journal

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rebind-dev/rebind/pkg/bindeffect"
	"github.com/rebind-dev/rebind/pkg/limiter"
	"github.com/rebind-dev/rebind/pkg/observe"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEntry(event string, ts time.Time) Entry {
	return Entry{
		Effect:    "fx-1",
		Event:     event,
		Severity:  "INFO",
		Timestamp: ts,
	}
}

// failStore rejects every write.
type failStore struct {
	appends int
}

func (s *failStore) Append(e Entry) error             { s.appends++; return errors.New("broken") }
func (s *failStore) Tail(n int) ([]Entry, error)      { return nil, nil }
func (s *failStore) Prune(maxAge time.Duration) error { return nil }
func (s *failStore) Close() error                     { return nil }

func TestRecorderAppendsEntries(t *testing.T) {
	store := NewMemoryStore(0)
	rec := NewRecorder(store)

	observe.Emit(rec, observe.EventMount, observe.LevelVerbose, "fx-1", nil)
	observe.Emit(rec, observe.EventFire, observe.LevelInfo, "fx-1", map[string]any{"bindings": 2})

	entries, err := store.Tail(0)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Event != "effect.mount" || entries[1].Event != "effect.fire" {
		t.Errorf("unexpected events: %q, %q", entries[0].Event, entries[1].Event)
	}
	if entries[0].Effect != "fx-1" {
		t.Errorf("expected effect fx-1, got %q", entries[0].Effect)
	}
	if entries[1].Severity != "INFO" {
		t.Errorf("expected severity INFO, got %q", entries[1].Severity)
	}
	if entries[1].Timestamp.IsZero() {
		t.Error("expected a stamped timestamp")
	}
	if got := entries[1].Data["bindings"]; got != 2 {
		t.Errorf("expected bindings attribute 2, got %v", got)
	}
}

func TestRecorderFiltersEvents(t *testing.T) {
	store := NewMemoryStore(0)
	rec := NewRecorder(store, WithEvents(observe.EventFire))

	observe.Emit(rec, observe.EventNotify, observe.LevelVerbose, "fx-1", nil)
	observe.Emit(rec, observe.EventFire, observe.LevelInfo, "fx-1", nil)
	observe.Emit(rec, observe.EventSchedule, observe.LevelVerbose, "fx-1", nil)

	entries, _ := store.Tail(0)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Event != "effect.fire" {
		t.Errorf("expected effect.fire, got %q", entries[0].Event)
	}
}

func TestRecorderSurvivesStoreFailure(t *testing.T) {
	store := &failStore{}
	rec := NewRecorder(store, WithLogger(quietLogger()))

	observe.Emit(rec, observe.EventFire, observe.LevelInfo, "fx-1", nil)
	observe.Emit(rec, observe.EventFire, observe.LevelInfo, "fx-1", nil)

	if store.appends != 2 {
		t.Errorf("expected 2 append attempts, got %d", store.appends)
	}
}

func TestRecorderCapturesEffectLifecycle(t *testing.T) {
	store := NewMemoryStore(0)
	rec := NewRecorder(store)

	c := bindeffect.New(nil, func(values bindeffect.Values, deps *bindeffect.Dependencies) {},
		bindeffect.WithMountTrigger(bindeffect.TriggerAlways),
		bindeffect.WithLimiter(limiter.Immediate{}),
		bindeffect.WithObserver(rec))
	c.Commit()
	c.Dispose()

	entries, _ := store.Tail(0)
	var got []string
	for _, e := range entries {
		if e.Effect != c.ID() {
			t.Errorf("expected effect %q, got %q", c.ID(), e.Effect)
		}
		got = append(got, e.Event)
	}

	want := []string{"effect.create", "effect.mount", "effect.schedule", "effect.fire", "effect.dispose"}
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, got)
		}
	}
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	store := NewMemoryStore(3)
	now := time.Now()
	for _, name := range []string{"e0", "e1", "e2", "e3", "e4"} {
		if err := store.Append(testEntry(name, now)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entries, _ := store.Tail(0)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"e2", "e3", "e4"} {
		if entries[i].Event != want {
			t.Errorf("entry %d: expected %q, got %q", i, want, entries[i].Event)
		}
	}
}

func TestMemoryStoreTailSubset(t *testing.T) {
	store := NewMemoryStore(0)
	now := time.Now()
	for _, name := range []string{"e0", "e1", "e2"} {
		store.Append(testEntry(name, now))
	}

	entries, _ := store.Tail(2)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Event != "e1" || entries[1].Event != "e2" {
		t.Errorf("expected e1, e2; got %q, %q", entries[0].Event, entries[1].Event)
	}

	entries, _ = store.Tail(10)
	if len(entries) != 3 {
		t.Errorf("expected all 3 entries for an oversized tail, got %d", len(entries))
	}
}

func TestMemoryStoreClose(t *testing.T) {
	store := NewMemoryStore(0)
	store.Append(testEntry("e0", time.Now()))

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := store.Append(testEntry("e1", time.Now())); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := store.Prune(time.Hour); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from Prune, got %v", err)
	}

	entries, err := store.Tail(0)
	if err != nil {
		t.Fatalf("Tail after Close failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected the recorded entry to stay readable, got %d entries", len(entries))
	}
}

func TestMemoryStorePrune(t *testing.T) {
	store := NewMemoryStore(0)
	store.Append(testEntry("old", time.Now().Add(-2*time.Hour)))
	store.Append(testEntry("recent", time.Now()))

	if err := store.Prune(time.Hour); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	entries, _ := store.Tail(0)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after prune, got %d", len(entries))
	}
	if entries[0].Event != "recent" {
		t.Errorf("expected recent entry to survive, got %q", entries[0].Event)
	}
}

func TestDiskStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	store, err := NewDiskStore(path)
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}
	defer store.Close()

	e := testEntry("effect.fire", time.Now())
	e.Data = map[string]any{"bindings": 2}
	if err := store.Append(e); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	store.Append(testEntry("effect.dispose", time.Now()))

	entries, err := store.Tail(0)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Event != "effect.fire" {
		t.Errorf("expected effect.fire, got %q", entries[0].Event)
	}
	// JSON numbers decode as float64.
	if got := entries[0].Data["bindings"]; got != float64(2) {
		t.Errorf("expected bindings 2, got %v (%T)", got, got)
	}

	entries, _ = store.Tail(1)
	if len(entries) != 1 || entries[0].Event != "effect.dispose" {
		t.Errorf("expected the newest entry from Tail(1), got %+v", entries)
	}
}

func TestDiskStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")

	store, err := NewDiskStore(path)
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}
	store.Append(testEntry("before", time.Now()))
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewDiskStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	reopened.Append(testEntry("after", time.Now()))

	entries, _ := reopened.Tail(0)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries across reopen, got %d", len(entries))
	}
	if entries[0].Event != "before" || entries[1].Event != "after" {
		t.Errorf("expected before, after; got %q, %q", entries[0].Event, entries[1].Event)
	}
}

func TestDiskStoreSkipsTornLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	good := `{"effect":"fx-1","event":"effect.fire","severity":"INFO","timestamp":"2026-08-25T10:00:00Z"}`
	torn := `{"effect":"fx-1","ev`
	if err := os.WriteFile(path, []byte(good+"\n"+torn), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	store, err := NewDiskStore(path)
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}
	defer store.Close()

	entries, err := store.Tail(0)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected the torn line to be skipped, got %d entries", len(entries))
	}
	if entries[0].Event != "effect.fire" {
		t.Errorf("expected effect.fire, got %q", entries[0].Event)
	}
}

func TestDiskStorePrune(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	store, err := NewDiskStore(path)
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}
	defer store.Close()

	store.Append(testEntry("old", time.Now().Add(-2*time.Hour)))
	store.Append(testEntry("recent", time.Now()))

	if err := store.Prune(time.Hour); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	entries, _ := store.Tail(0)
	if len(entries) != 1 || entries[0].Event != "recent" {
		t.Fatalf("expected only the recent entry, got %+v", entries)
	}

	// The append handle moves to the rewritten file.
	if err := store.Append(testEntry("later", time.Now())); err != nil {
		t.Fatalf("Append after Prune failed: %v", err)
	}
	entries, _ = store.Tail(0)
	if len(entries) != 2 {
		t.Errorf("expected 2 entries after post-prune append, got %d", len(entries))
	}
}

func TestDiskStoreClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	store, err := NewDiskStore(path)
	if err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if err := store.Append(testEntry("e", time.Now())); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
