package prodmatch

import (
	"errors"
	"fmt"

	"github.com/hupe1980/prodmatch/catalog"
	"github.com/hupe1980/prodmatch/video"
)

var (
	// ErrNoFeatures is returned when a reference image yields no usable
	// descriptors. The catalog is left unchanged.
	ErrNoFeatures = errors.New("no features detected in image")

	// ErrNotFound is returned when a product id is not registered.
	ErrNotFound = errors.New("product not found")

	// ErrMediaUnreadable is returned when a video file cannot be opened or
	// decoded.
	ErrMediaUnreadable = video.ErrMediaUnreadable

	// ErrNoVideoPipeline is returned by ProcessVideo when no Opener or
	// Transcriber was configured.
	ErrNoVideoPipeline = errors.New("video pipeline not configured")
)

// ErrEmptyName indicates a registration attempt without a product name.
type ErrEmptyName struct {
	cause error
}

func (e *ErrEmptyName) Error() string {
	return "product name must not be empty"
}

func (e *ErrEmptyName) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// Empty descriptor sets surface as the facade's no-features error.
	if errors.Is(err, catalog.ErrNoDescriptors) {
		return fmt.Errorf("%w: %w", ErrNoFeatures, err)
	}

	return err
}
