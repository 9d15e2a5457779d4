// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fade

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the class of a fade error.
type Kind int

const (
	// ConfigurationError is a missing or invalid argument or
	// an image that cannot be used in the animation.
	ConfigurationError Kind = iota + 1
	// IOError is a failure to find, read or write a file.
	IOError
	// EncodeInitError is a failure to start a GIF encoding.
	EncodeInitError
	// EncodeFrameError is a failure to encode a single frame.
	EncodeFrameError
)

func (k Kind) String() string {
	switch k {
	case ConfigurationError:
		return "configuration error"
	case IOError:
		return "i/o error"
	case EncodeInitError:
		return "encoder initialisation error"
	case EncodeFrameError:
		return "frame encoding error"
	default:
		return fmt.Sprintf("unknown error kind %d", int(k))
	}
}

// Error is an error from an animation run. All errors are fatal to the run.
type Error struct {
	Kind Kind
	// Op is the operation that failed.
	Op string
	// Path is the file involved, if any.
	Path string
	// Index is the image or frame index involved, or -1.
	Index int
	// Err is the underlying error.
	Err error
}

// Errorf returns an *Error of the given kind with a formatted message.
// The Index field is set to -1.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Index: -1, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Op)
	if e.Path != "" {
		buf.WriteString(" ")
		buf.WriteString(e.Path)
	}
	if e.Index >= 0 {
		fmt.Fprintf(&buf, " at %d", e.Index)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind returns whether err wraps an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
