/*
Package notifier provides a thread-safe, single-channel broadcast registry
whose observers are held by weak reference.

# Overview

A Registry[P] is one notification channel carrying payloads of type P.
Observers register with Add (an object plus a method) or AddFunc (a plain
function), receive a Handle, and are called for every Notify until the
handle is passed to Remove.

An observer registered with Add does not keep its object alive. When the
object becomes unreachable the next Notify silently drops the
registration instead of calling into it:

	type Panel struct{ title string }

	func (p *Panel) OnTheme(t Theme) { p.apply(t) }

	themes := notifier.New[Theme](notifier.WithName("themes"))

	panel := &Panel{title: "main"}
	notifier.Add(themes, panel, nil, (*Panel).OnTheme)

	themes.Notify(Dark) // panel.OnTheme(Dark)

	panel = nil
	runtime.GC()
	themes.Notify(Light) // registration pruned, nothing called

Free-standing callbacks are anchored to the registry itself and live
until removed:

	h := themes.AddFunc(nil, func(t Theme) { log.Println("theme:", t) })
	defer themes.Remove(h)

# Delivery

Notify works in two phases. Under the registry lock it resolves every
observer, prunes the collected ones and captures the rest in registration
order. It then releases the lock and delivers the captured calls, so
observers may call Add, Remove or Notify on the same registry without
deadlocking.

Observers registered with a nil target run synchronously, in order, on
the goroutine that called Notify. Observers registered with a
dispatch.Target are submitted to it and Notify does not wait for them:

	ui := dispatch.NewQueue(dispatch.QueueConfig{Name: "ui"})
	defer ui.Close(context.Background())

	notifier.Add(themes, panel, ui, (*Panel).OnTheme)

Observers added during a Notify are not part of that call's snapshot.
Removing an observer during a Notify does not retract a call that was
already captured.

# Failure Handling

The registry has no error returns. Expired observers are pruned, and
removing an unknown handle is a no-op. Passing nil where an observer or
callback is required panics. A panic inside a synchronous observer
propagates to the Notify caller; panics on a dispatch target follow that
target's own policy (Queue recovers and reports them).

# Weak Reference Timing

Expiry follows the garbage collector: an observer disappears at some
collection after its last strong reference is dropped, not at the moment
it is dropped. Until then it keeps receiving notifications. A method
passed to Add that captures its own receiver keeps the receiver alive
forever; use a method expression such as (*Panel).OnTheme.

Observers passed to Add must be heap allocated, which anything created
with new or &T{} is. A pointer to a package-level variable cannot be held
weakly and the runtime aborts the process when asked to. Observers of a
zero-size type are never collected and stay registered until removed.
Free-standing callbacks from AddFunc are held strongly by the registry,
so a package-level Registry works like any other.

# Observability

Registries log through slog (WithLogger), record OpenTelemetry metrics
(WithMetrics) and wrap each notify in a span (WithTracing). All three are
off by default. OptionsFromConfig builds them from a config section.
*/
package notifier
