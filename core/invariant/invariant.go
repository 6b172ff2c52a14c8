// Package invariant provides contract assertions for seqscope.
//
// Assertions guard programmer errors only: a nil sequence handed to the
// scope editor, an unknown kind policy, a node type the resolver has never
// heard of. User-facing conditions (a variable still in use, an orphan
// reference) are ordinary return values and never reach this package.
//
// All functions panic on violation.
package invariant

import (
	"fmt"
	"reflect"
	"runtime"
)

// Precondition checks an input contract at function entry.
//
// Example:
//
//	func Remove(seq *script.Sequence, label string) (*script.Sequence, error) {
//	    invariant.Precondition(label != "", "label must not be empty")
//	    // ...
//	}
func Precondition(condition bool, format string, args ...any) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before function return.
func Postcondition(condition bool, format string, args ...any) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks internal consistency, such as label uniqueness after an upsert.
func Invariant(condition bool, format string, args ...any) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// NotNil panics if value is nil, including typed nils such as (*script.Sequence)(nil).
func NotNil(value any, name string) {
	if isNilValue(value) {
		fail("PRECONDITION", "%s must not be nil", name)
	}
}

// Unreachable marks a dispatch arm that a closed sum type should never reach.
//
// Example:
//
//	switch n := node.(type) {
//	case *script.Coordinate:
//	    // ...
//	default:
//	    invariant.Unreachable("unhandled node %T", n)
//	}
func Unreachable(format string, args ...any) {
	fail("INVARIANT", format, args...)
}

// ExpectNoError panics if err is not nil.
// Use for operations that cannot fail on well-formed input, e.g. encoding a
// snapshot made only of plain structs.
func ExpectNoError(err error, msg string) {
	if err != nil {
		fail("POSTCONDITION", "%s must not fail: %v", msg, err)
	}
}

func isNilValue(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// fail panics with a formatted message and the caller's location.
func fail(kind, format string, args ...any) {
	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])

	msg := fmt.Sprintf("%s VIOLATION: "+format, append([]any{kind}, args...)...)
	if frame, ok := frames.Next(); ok {
		msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
	}

	panic(msg)
}
