package bindeffect

import (
	"errors"
	"testing"

	"github.com/rebind-dev/rebind/pkg/limiter"
	"github.com/rebind-dev/rebind/pkg/scope"
)

func TestUseOutsideScopePanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic outside a scope pass")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrNoScope) {
			t.Errorf("expected ErrNoScope, got %v", r)
		}
	}()
	Use(nil, func(Values, *Dependencies) {})
}

func TestUseLifecycle(t *testing.T) {
	f := newFake("u0", "c0", 1)
	sc := scope.New(nil)
	var log fireLog

	scope.Pass(sc, func() {
		Use(One(f), log.callback,
			WithLimiter(limiter.Immediate{}),
			WithMountTrigger(TriggerAlways))
	})
	if log.fires() != 0 {
		t.Fatalf("expected mount to wait for commit, got %d fires", log.fires())
	}

	sc.Commit()
	if log.fires() != 1 {
		t.Errorf("expected commit to mount and fire, got %d", log.fires())
	}
	if f.listenerCount() != 1 {
		t.Errorf("expected 1 listener, got %d", f.listenerCount())
	}
}

func TestUseStableAcrossPasses(t *testing.T) {
	f := newFake("u0", "c0", 1)
	sc := scope.New(nil)
	var log fireLog

	var first, second *Coordinator
	scope.Pass(sc, func() {
		first = Use(One(f), log.callback, WithLimiter(limiter.Immediate{}))
	})
	sc.Commit()

	scope.Pass(sc, func() {
		second = Use(One(f), log.callback, WithLimiter(limiter.Immediate{}))
	})
	sc.Commit()

	if first != second {
		t.Error("expected the same coordinator across passes")
	}
}

func TestUseMemoizesEquivalentDeps(t *testing.T) {
	f := newFake("u0", "c0", 1)
	sc := scope.New(nil)
	var log fireLog

	pass := func() {
		scope.Pass(sc, func() {
			Use(One(f), log.callback, WithLimiter(limiter.Immediate{}))
		})
		sc.Commit()
	}

	pass()
	pass()
	pass()

	if f.adds != 1 {
		t.Errorf("expected equivalent deps to reuse the subscription, got %d adds", f.adds)
	}
	if log.fires() != 0 {
		t.Errorf("expected no fires from re-passing, got %d", log.fires())
	}
}

func TestUseResubscribesOnRealChange(t *testing.T) {
	f1 := newFake("u0", "c0", 1)
	f2 := newFake("u1", "c1", 2)
	sc := scope.New(nil)
	var log fireLog

	current := f1
	pass := func() {
		scope.Pass(sc, func() {
			Use(One(current), log.callback, WithLimiter(limiter.Immediate{}))
		})
		sc.Commit()
	}

	pass()
	current = f2
	pass()

	if f1.listenerCount() != 0 {
		t.Errorf("expected old binding released, got %d listeners", f1.listenerCount())
	}
	if f2.listenerCount() != 1 {
		t.Errorf("expected new binding subscribed, got %d listeners", f2.listenerCount())
	}

	f2.set(3, "c1x")
	if log.fires() != 1 {
		t.Errorf("expected new binding to drive the effect, got %d fires", log.fires())
	}
}

func TestUseDepsValueChangeFires(t *testing.T) {
	f := newFake("u0", "c0", 1)
	sc := scope.New(nil)
	var log fireLog

	userID := "alice"
	pass := func() {
		scope.Pass(sc, func() {
			Use(One(f), log.callback,
				WithLimiter(limiter.Immediate{}),
				WithDeps(userID))
		})
		sc.Commit()
	}

	pass()
	if log.fires() != 0 {
		t.Fatalf("expected quiet first pass, got %d fires", log.fires())
	}

	pass()
	if log.fires() != 0 {
		t.Fatalf("expected unchanged deps to stay quiet, got %d fires", log.fires())
	}

	userID = "bob"
	pass()
	if log.fires() != 1 {
		t.Errorf("expected deps change to fire once, got %d", log.fires())
	}
}

func TestUseScopeDisposeDisposesEffect(t *testing.T) {
	f := newFake("u0", "c0", 1)
	sc := scope.New(nil)
	var log fireLog

	var c *Coordinator
	scope.Pass(sc, func() {
		c = Use(One(f), log.callback, WithLimiter(limiter.Immediate{}))
	})
	sc.Commit()

	sc.Dispose()
	if !c.IsDisposed() {
		t.Error("expected scope disposal to dispose the effect")
	}
	if f.listenerCount() != 0 {
		t.Errorf("expected listeners released, got %d", f.listenerCount())
	}

	f.set(2, "c1")
	if log.fires() != 0 {
		t.Errorf("expected no fire after disposal, got %d", log.fires())
	}
}

func TestUseMultipleEffectsKeepSlots(t *testing.T) {
	fa := newFake("u0", "c0", 1)
	fb := newFake("u1", "c1", 2)
	sc := scope.New(nil)
	var logA, logB fireLog

	var a1, b1, a2, b2 *Coordinator
	scope.Pass(sc, func() {
		a1 = Use(One(fa), logA.callback,
			WithLimiter(limiter.Immediate{}), WithID("a"))
		b1 = Use(One(fb), logB.callback,
			WithLimiter(limiter.Immediate{}), WithID("b"))
	})
	sc.Commit()

	scope.Pass(sc, func() {
		a2 = Use(One(fa), logA.callback, WithID("a"))
		b2 = Use(One(fb), logB.callback, WithID("b"))
	})
	sc.Commit()

	if a1 != a2 || b1 != b2 {
		t.Error("expected each hook position to keep its coordinator")
	}
	if a1.ID() != "a" || b1.ID() != "b" {
		t.Errorf("expected ids a and b, got %q and %q", a1.ID(), b1.ID())
	}

	fb.set(3, "c1x")
	if logA.fires() != 0 || logB.fires() != 1 {
		t.Errorf("expected only the second effect to fire, got %d and %d",
			logA.fires(), logB.fires())
	}
}
