//go:build !retiredebug

package disposal

// debugAssertions reports whether double-free tracking is compiled in.
const debugAssertions = false

// checkFree is a no-op in release builds.
func checkFree(Resource) {}
