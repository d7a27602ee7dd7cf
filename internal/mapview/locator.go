package mapview

import (
	"context"

	"github.com/paulmach/orb"
)

// Locator reports the device's current position, the origin of every
// directions request.
type Locator interface {
	CurrentLocation(ctx context.Context) (orb.Point, error)
}

// FixedLocator always reports the same point.
type FixedLocator struct {
	Point orb.Point
}

func (f FixedLocator) CurrentLocation(context.Context) (orb.Point, error) {
	return f.Point, nil
}
