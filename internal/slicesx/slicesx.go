// Package slicesx holds small generic slice helpers shared across this
// module's packages.
package slicesx

// Contains reports whether needle is present in haystack.
func Contains[T comparable](haystack []T, needle T) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}

	return false
}
