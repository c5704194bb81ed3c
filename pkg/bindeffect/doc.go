// Package bindeffect coordinates side effects against observable
// bindings.
//
// A Coordinator watches a set of bindings and invokes a callback when
// they change, with three levers controlling when the callback actually
// runs: a mount trigger policy, optional deep change detection over
// extracted values, and a limiter that coalesces bursts of
// notifications into a single delivery.
//
// # Dependencies
//
// Bindings are grouped into a Dependencies set in one of three shapes:
//
//	bindeffect.One(price)                          // single
//	bindeffect.List(price, quantity)               // positional
//	bindeffect.Named(
//	    bindeffect.Bind("price", price),
//	    bindeffect.Bind("qty", quantity),
//	)                                              // named
//
// The callback receives a Values carrying the extracted values in the
// same shape.
//
// # Standalone Use
//
// Hosts without a render cycle create and mount in one call:
//
//	dispose := bindeffect.Create(
//	    bindeffect.List(price, quantity),
//	    func(vals bindeffect.Values, _ *bindeffect.Dependencies) {
//	        total.Set(recompute(vals))
//	    },
//	    bindeffect.WithWindow(50*time.Millisecond),
//	)
//	defer dispose()
//
// # Hosted Use
//
// Inside a scope pass, Use gives the effect a stable identity across
// passes, re-subscribing only when the dependency set genuinely
// changes:
//
//	scope.Pass(sc, func() {
//	    bindeffect.Use(bindeffect.One(query), onQueryChange)
//	})
//	sc.Commit()
//
// # Triggering
//
// The mount trigger policy decides whether the callback runs when the
// effect mounts and after each later pass: TriggerIfInputChanged (the
// default) fires only when the observed inputs differ from the recorded
// baseline, TriggerAlways fires every pass, TriggerFirstMountOnly fires
// once, and TriggerNever leaves firing to notifications alone.
//
// With DetectInputChanges, notification-driven runs additionally
// compare extracted values against the previous run and suppress the
// callback when nothing of substance changed.
//
// # Thread Safety
//
// Coordinators are safe for concurrent use. Callbacks run on the
// limiter's execution context, never synchronously from a binding
// notification.
package bindeffect
