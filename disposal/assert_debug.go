//go:build retiredebug

package disposal

import (
	"reflect"
	"sync"
)

// debugAssertions reports whether double-free tracking is compiled in.
const debugAssertions = true

// freed remembers every comparable resource freed so far. It grows without
// bound and keeps freed handles reachable; debug builds only.
var (
	freedMu sync.Mutex
	freed   = make(map[Resource]struct{})
)

// checkFree panics on nil resources and on resources freed before.
func checkFree(r Resource) {
	if r == nil {
		panic(ErrNilResource)
	}
	if !reflect.TypeOf(r).Comparable() {
		return
	}
	freedMu.Lock()
	defer freedMu.Unlock()
	if _, dup := freed[r]; dup {
		panic(ErrDoubleFree)
	}
	freed[r] = struct{}{}
}
