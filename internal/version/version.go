// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package version prints the build version.
package version

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"
)

// Print prints the build version of the named program to w.
func Print(w io.Writer, name string) error {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return errors.New("no build info")
	}
	return write(w, name, bi)
}

func write(w io.Writer, name string, bi *debug.BuildInfo) error {
	var revision, modified string
	for _, bs := range bi.Settings {
		switch bs.Key {
		case "vcs.revision":
			revision = bs.Value
		case "vcs.modified":
			modified = bs.Value
		}
	}
	var err error
	switch {
	case revision == "":
		_, err = fmt.Fprintln(w, name, bi.Main.Version)
	case modified == "true":
		_, err = fmt.Fprintln(w, name, bi.Main.Version, revision, "(modified)")
	case modified == "false":
		_, err = fmt.Fprintln(w, name, bi.Main.Version, revision)
	default:
		// This should never happen.
		_, err = fmt.Fprintln(w, name, bi.Main.Version, revision, modified)
	}
	return err
}
