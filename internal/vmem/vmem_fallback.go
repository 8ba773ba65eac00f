//go:build !unix && !windows

package vmem

import "os"

func osPageSize() int { return os.Getpagesize() }

// reserve allocates the whole range up front when virtual memory primitives
// are not available. Commit and decommit only clear pages.
func reserve(size uintptr) ([]byte, error) {
	return make([]byte, size), nil
}

func commit([]byte) error { return nil }

func decommit(b []byte) error {
	clear(b)
	return nil
}

func release([]byte) error { return nil }
