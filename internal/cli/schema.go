// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/encoding/gocode/gocodec"
)

// Schema is the CUE schema for a run configuration file.
const Schema = `
{
	images?:       [... string]
	output?:       string & !=""
	frames?:       int & >=1
	speed?:        int & >=1 & <=30
	workers?:      int & >=1
	write_frames?: bool
	write_json?:   bool
	duration?: {
		important?: number & >=0
		standard?:  number & >=0
	}
	resize?: {
		width:  _#dimension
		height: _#dimension
	}
}

_#dimension: int & >=1 & <=65535
`

// Vet validates f against Schema, returning the paths to invalid fields
// and a CUE errors.Error describing the problems if f is not valid.
func Vet(f *File) (paths [][]string, err error) {
	ctx := cuecontext.New()

	v := ctx.CompileString(Schema)
	codec := gocodec.New(ctx, nil)

	w, err := codec.Decode(f)
	if err != nil {
		return nil, err
	}

	u := v.Unify(w)
	err = u.Validate(cue.Concrete(true), cue.Final())
	errs := cerrors.Errors(err)
	if len(errs) != 0 {
		paths = make([][]string, 0, len(errs))
		err = cerrors.Append(
			cerrors.Promote(err, ""),
			cerrors.Promote(fmt.Errorf("%s", u), "not concrete"),
		)
	}
	for _, err := range errs {
		p := cerrors.Path(err)
		if p != nil {
			paths = append(paths, p)
		}
	}
	return unique(paths), err
}

// unique returns paths lexically sorted in ascending order and with
// repeated elements omitted.
func unique(paths [][]string) [][]string {
	if len(paths) < 2 {
		return paths
	}
	slices.SortFunc(paths, slices.Compare[[]string])
	return slices.CompactFunc(paths, slices.Equal[[]string])
}
