package region

import (
	"fmt"
	"strings"
)

// Kind names a region effect.
type Kind string

const (
	KindBlur   Kind = "blur"
	KindMosaic Kind = "mosaic"
)

const (
	// DefaultBlurRadius is strong enough to make body text unreadable.
	DefaultBlurRadius = 15.0
	// DefaultMosaicBlock is the mosaic cell edge in pixels.
	DefaultMosaicBlock = 8
)

// Effect is either a Gaussian blur of Radius or a black/white mosaic with
// cells of BlockSize pixels. Build one with Blur or Mosaic.
type Effect struct {
	Kind      Kind    `json:"kind"`
	Radius    float64 `json:"radius,omitempty"`
	BlockSize int     `json:"blockSize,omitempty"`
}

// Blur returns a Gaussian blur effect.
func Blur(radius float64) Effect {
	if radius <= 0 {
		radius = DefaultBlurRadius
	}
	return Effect{Kind: KindBlur, Radius: radius}
}

// Mosaic returns a random black/white block effect.
func Mosaic(blockSize int) Effect {
	if blockSize < 1 {
		blockSize = DefaultMosaicBlock
	}
	return Effect{Kind: KindMosaic, BlockSize: blockSize}
}

// ParseEffect resolves an effect name using the given parameters.
func ParseEffect(name string, radius float64, blockSize int) (Effect, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(name))) {
	case KindBlur:
		return Blur(radius), nil
	case KindMosaic:
		return Mosaic(blockSize), nil
	default:
		return Effect{}, fmt.Errorf("unknown effect %q (want blur or mosaic)", name)
	}
}

func (e Effect) String() string {
	switch e.Kind {
	case KindBlur:
		return fmt.Sprintf("blur(radius=%g)", e.Radius)
	case KindMosaic:
		return fmt.Sprintf("mosaic(block=%d)", e.BlockSize)
	default:
		return string(e.Kind)
	}
}
