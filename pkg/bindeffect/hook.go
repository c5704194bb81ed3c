package bindeffect

import (
	"github.com/rebind-dev/rebind/pkg/scope"
)

// effectSlot is the per-hook record stored in a scope slot. It pins the
// coordinator and the last dependency set handed to it, so an
// equivalent set on the next pass reuses the same pointer and no
// resubscription happens.
type effectSlot struct {
	c    *Coordinator
	deps *Dependencies
}

// Use declares an effect inside a scope pass. The first pass creates
// the coordinator and ties its disposal to the scope; every pass
// refreshes the callback, re-subscribes only when the dependency set
// genuinely differs from the previous pass's, and queues the mount
// decision for the scope's commit phase.
//
// Options other than WithDeps are read on the first pass only. Use
// panics with ErrNoScope when called outside a scope pass.
//
//	scope.Pass(sc, func() {
//		bindeffect.Use(
//			bindeffect.Named(bindeffect.Bind("query", query)),
//			func(vals bindeffect.Values, _ *bindeffect.Dependencies) {
//				q, _ := vals.Get("query")
//				go search(q.(string))
//			},
//			bindeffect.WithID("search"),
//		)
//	})
//	sc.Commit()
func Use(deps *Dependencies, cb Callback, opts ...Option) *Coordinator {
	sc := scope.Current()
	if sc == nil {
		panic(ErrNoScope)
	}

	nd := normalize(deps)

	slot := sc.UseSlot()
	if slot == nil {
		c := New(nd, cb, opts...)
		sc.SetSlot(&effectSlot{c: c, deps: nd})
		sc.OnCleanup(c.Dispose)
		sc.OnCommit(c.Commit)
		return c
	}

	rec := slot.(*effectSlot)

	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if nd.Equal(rec.deps) {
		nd = rec.deps
	} else {
		rec.deps = nd
	}

	rec.c.Render(nd, cb, cfg.deps)
	sc.OnCommit(rec.c.Commit)
	return rec.c
}
