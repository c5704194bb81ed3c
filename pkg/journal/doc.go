// Package journal is a flight recorder for coordinated effects.
//
// A Recorder implements observe.Observer and appends one Entry per
// event to a Store. Hook it into a coordinator (or a MultiObserver
// alongside logging and metrics) and the journal captures the full
// lifecycle: create, mount, notifications, firings, disposal.
//
// # Usage
//
// Record firings to a bounded in-memory ring:
//
//	store := journal.NewMemoryStore(1024)
//	rec := journal.NewRecorder(store, journal.WithEvents(observe.EventFire))
//
//	dispose := bindeffect.Create(deps, callback, bindeffect.WithObserver(rec))
//	defer dispose()
//
//	entries, _ := store.Tail(10) // last ten firings
//
// For persistence across restarts, use a DiskStore. It appends one
// JSON object per line, so the log is greppable and tail-able with
// ordinary shell tools:
//
//	store, err := journal.NewDiskStore("/var/log/rebind/journal.jsonl")
//
// An example S3-backed store lives in s3_example.go behind the
// s3example build tag.
package journal
