//go:build !imagick

package imageio

import "image"

// decodeFallback is the no-op fallback used when the imagick build tag is
// not set: no alternate decoder is available, so Load reports the
// original stdlib decode error.
func decodeFallback(path string) (image.Image, error) {
	return nil, errNoFallback
}
