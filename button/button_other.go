//go:build !linux

package button

import "io"

// Open is not supported on this platform.
func Open(_ string, _ int, _ *Button) (io.Closer, error) {
	return nil, ErrNotSupported
}
