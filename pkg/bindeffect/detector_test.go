package bindeffect

import "testing"

func TestDeepDetectorStoresOnlyOnChange(t *testing.T) {
	f := newFake("u0", "c0", 1)
	d := One(f)

	det := newDetector(modeDeep, nil, nil)
	det.seed(d)

	if det.checkAndUpdate(d) {
		t.Error("expected no change right after seeding")
	}

	f.setSilently(2, "c1")
	if !det.checkAndUpdate(d) {
		t.Error("expected change after value update")
	}
	if det.checkAndUpdate(d) {
		t.Error("expected a repeated check to report no change")
	}
}

func TestDeepDetectorKeepsBaselineWhenEqual(t *testing.T) {
	f := newFake("u0", "c0", 1)
	d := One(f)

	sameParity := func(a, b any) bool {
		av, aok := a.(Values)
		bv, bok := b.(Values)
		if !aok || !bok {
			return a == b
		}
		return av.Single().(int)%2 == bv.Single().(int)%2
	}

	det := newDetector(modeDeep, sameParity, nil)
	det.seed(d)

	// 1 -> 3 keeps parity, so the baseline stays at 1.
	f.setSilently(3, "c1")
	if det.checkAndUpdate(d) {
		t.Error("expected equal values to report no change")
	}

	// 3 -> 2 flips parity against the retained baseline of 1.
	f.setSilently(2, "c2")
	if !det.checkAndUpdate(d) {
		t.Error("expected parity flip to report a change")
	}
}

func TestSignatureDetectorStoresAlways(t *testing.T) {
	f := newFake("u0", "c0", 1)
	d := One(f)

	det := newDetector(modeSignature, nil, nil)
	det.seed(d)

	if det.checkAndUpdate(d) {
		t.Error("expected no change right after seeding")
	}

	f.setSilently(1, "c1")
	if !det.checkAndUpdate(d) {
		t.Error("expected change UID update to report a change")
	}

	// Reverting to the original UID still differs from the stored "c1".
	f.setSilently(1, "c0")
	if !det.checkAndUpdate(d) {
		t.Error("expected revert to differ from the stored signature")
	}
	if det.checkAndUpdate(d) {
		t.Error("expected a repeated check to report no change")
	}
}

func TestUnconditionalDetector(t *testing.T) {
	d := One(newFake("u0", "c0", 1))

	det := newDetector(modeUnconditional, nil, nil)
	for i := 0; i < 3; i++ {
		if !det.checkAndUpdate(d) {
			t.Fatalf("expected unconditional check %d to report a change", i)
		}
	}
}

func TestUnseededDetectorReportsChange(t *testing.T) {
	f := newFake("u0", "c0", 1)
	d := One(f)

	sig := newDetector(modeSignature, nil, nil)
	if !sig.checkAndUpdate(d) {
		t.Error("expected first unseeded signature check to report a change")
	}

	deep := newDetector(modeDeep, nil, nil)
	if !deep.checkAndUpdate(d) {
		t.Error("expected first unseeded deep check to report a change")
	}
	if deep.checkAndUpdate(d) {
		t.Error("expected second deep check to report no change")
	}
}

func TestDetectorCustomSnapshot(t *testing.T) {
	watched := newFake("u0", "c0", 1)
	ignored := newFake("u1", "c1", 100)
	d := List(watched, ignored)

	firstOnly := func(d *Dependencies) any {
		return d.Bindings()[0].Value()
	}

	det := newDetector(modeDeep, nil, firstOnly)
	det.seed(d)

	ignored.setSilently(200, "c1x")
	if det.checkAndUpdate(d) {
		t.Error("expected change outside the snapshot to be invisible")
	}

	watched.setSilently(2, "c0x")
	if !det.checkAndUpdate(d) {
		t.Error("expected snapshot change to be detected")
	}
}

func TestDetectorEmptySignature(t *testing.T) {
	det := newDetector(modeSignature, nil, nil)
	det.seed(None())
	if det.checkAndUpdate(None()) {
		t.Error("expected empty set to never change")
	}
}
