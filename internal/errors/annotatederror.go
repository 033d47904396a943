// Package errors provides errors annotated with the call site and structured [slog.Attr] values.
//
// Wrap records where the error was wrapped so that SlogError can point the log line at the origin of the failure
// instead of the place where it was finally logged.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
)

type sentinelError struct {
	msg string
}

func (e *sentinelError) Error() string {
	return e.msg
}

// NewSentinel creates a comparable error without call site information.
// Use it for package level error values that are matched with [Is].
func NewSentinel(msg string) error {
	return &sentinelError{msg: msg}
}

type annotatedError struct {
	err    error
	msg    string
	attrs  []slog.Attr
	source string
}

func (e *annotatedError) Error() string {
	if e.msg == "" {
		return e.err.Error()
	}
	return e.msg + ": " + e.err.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

// New creates an error that remembers the call site.
func New(msg string, attrs ...slog.Attr) error {
	return &annotatedError{
		err:    &sentinelError{msg: msg},
		msg:    "",
		attrs:  attrs,
		source: callerSource(),
	}
}

// Wrap annotates err with msg, the call site, and attrs. Wrapping a nil error returns nil.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	return &annotatedError{
		err:    err,
		msg:    msg,
		attrs:  attrs,
		source: callerSource(),
	}
}

// DecoratePanic converts a recovered panic value into an error pointing at the line that panicked.
// It must be called from the deferred function that recovered the panic.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	const depth = 32
	pcs := make([]uintptr, depth)
	n := runtime.Callers(2, pcs) //nolint:mnd // skip runtime.Callers and DecoratePanic.
	frames := runtime.CallersFrames(pcs[:n])

	var (
		source     string
		afterPanic bool
	)
	for {
		frame, more := frames.Next()
		if afterPanic {
			source = frameSource(frame)
			break
		}
		if frame.Function == "runtime.gopanic" {
			afterPanic = true
		}
		if !more {
			break
		}
	}

	var err error
	if e, ok := excp.(error); ok {
		err = e
	} else {
		err = NewSentinel(fmt.Sprint(excp))
	}
	return &annotatedError{err: err, msg: "panic", attrs: nil, source: source}
}

// SlogError flattens err into an "error" attribute group containing the message, the source location of the
// innermost annotation and all annotation attributes found in the chain.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}

	var (
		annotations []any
		source      string
		current     = err
	)
	for current != nil {
		var annotated *annotatedError
		if !stderrors.As(current, &annotated) {
			break
		}
		for _, attr := range annotated.attrs {
			annotations = append(annotations, attr)
		}
		if annotated.source != "" {
			source = annotated.source
		}
		current = annotated.err
	}

	attrs := []any{slog.String("message", err.Error())}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	return slog.Group("error", attrs...)
}

func callerSource() string {
	// Skip callerSource and the exported constructor.
	_, file, line, ok := runtime.Caller(2) //nolint:mnd // see above.
	if !ok {
		return ""
	}
	return file + ":" + strconv.Itoa(line)
}

func frameSource(frame runtime.Frame) string {
	if frame.File == "" {
		return ""
	}
	return frame.File + ":" + strconv.Itoa(frame.Line)
}

// Is reports whether any error in err's tree matches target. See [errors.Is].
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target. See [errors.As].
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err. See [errors.Unwrap].
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// Join returns an error that wraps the given errors. See [errors.Join].
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
