package notifier

import (
	"reflect"
	"weak"

	"github.com/google/uuid"
	"github.com/randalmurphal/notifier/pkg/notifier/dispatch"
)

// Handle identifies one registration. It is only useful as an argument to
// Registry.Remove; handles compare by pointer, so registering the same
// observer twice yields two distinct handles.
//
// Handles are created by Add and AddFunc and never change afterwards.
type Handle[P any] struct {
	id     string
	desc   string
	mode   string
	target dispatch.Target

	// bind resolves the weakly held observer and returns the callback bound
	// to it, or false once the observer has been collected.
	bind func() (func(P), bool)
}

// ID returns a unique identifier for diagnostics and logs.
func (h *Handle[P]) ID() string {
	return h.id
}

// String describes the handle as "<id> <observer type> <sync|target>".
func (h *Handle[P]) String() string {
	return h.id + " " + h.desc + " " + h.mode
}

// Add registers method to be called on obj for every notification.
//
// obj is held weakly: once nothing else references it, the registration
// is dropped by the next Notify and method is never called again. method
// must not capture obj itself or obj will never become unreachable; a
// method expression is the intended form:
//
//	h := notifier.Add(reg, widget, nil, (*Widget).OnSettingsChanged)
//
// obj must point into the heap, as anything allocated with new or &T{}
// does. The runtime cannot hold a weak pointer to a package-level
// variable and aborts the process if asked to. Zero-size observer types
// have no lifetime to track and are held for as long as the registration
// exists.
//
// A nil target runs method synchronously inside Notify. A non-nil target
// receives the call through Submit instead. A typed nil target, such as a
// nil *dispatch.Queue, counts as nil.
//
// Add is a function rather than a method because Go methods cannot
// declare their own type parameters.
func Add[T, P any](r *Registry[P], obj *T, target dispatch.Target, method func(*T, P)) *Handle[P] {
	if r == nil {
		panic("notifier: Add on nil registry")
	}
	if obj == nil {
		panic("notifier: Add with nil observer")
	}
	if method == nil {
		panic("notifier: Add with nil method")
	}

	desc := reflect.TypeFor[*T]().String()
	var h *Handle[P]
	if reflect.TypeFor[T]().Size() == 0 {
		h = newHandle(target, desc, bindStrong(func(payload P) { method(obj, payload) }))
	} else {
		h = newHandle(target, desc, bindWeak(obj, method))
	}
	r.add(h)
	return h
}

func newHandle[P any](target dispatch.Target, desc string, bind func() (func(P), bool)) *Handle[P] {
	target = normalizeTarget(target)
	return &Handle[P]{
		id:     uuid.NewString(),
		desc:   desc,
		mode:   targetName(target),
		target: target,
		bind:   bind,
	}
}

// bindWeak resolves obj through a weak pointer on every notify.
func bindWeak[T, P any](obj *T, method func(*T, P)) func() (func(P), bool) {
	ref := weak.Make(obj)
	return func() (func(P), bool) {
		strong := ref.Value()
		if strong == nil {
			return nil, false
		}
		return func(payload P) { method(strong, payload) }, true
	}
}

// bindStrong never expires.
func bindStrong[P any](fn func(P)) func() (func(P), bool) {
	return func() (func(P), bool) { return fn, true }
}

// normalizeTarget turns a typed nil held in the interface into a plain nil
// so the registration runs synchronously instead of calling Submit on nil.
func normalizeTarget(target dispatch.Target) dispatch.Target {
	if target == nil {
		return nil
	}
	v := reflect.ValueOf(target)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Chan, reflect.Slice, reflect.Interface:
		if v.IsNil() {
			return nil
		}
	}
	return target
}

func targetName(target dispatch.Target) string {
	if target == nil {
		return "sync"
	}
	if named, ok := target.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "async"
}
