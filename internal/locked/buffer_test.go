// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package locked

import (
	"fmt"
	"sync"
	"testing"
)

func TestBytesBuffer(t *testing.T) {
	var (
		buf BytesBuffer
		wg  sync.WaitGroup
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Fprintf(&buf, "line %d\n", i)
		}()
	}
	wg.Wait()
	if got := buf.Lines(); got != 16 {
		t.Errorf("unexpected line count: got:%d want:16\n%s", got, &buf)
	}
}
