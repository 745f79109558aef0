package layer

import "errors"

var (
	// ErrLayerNotFound indicates the requested layer doesn't exist.
	ErrLayerNotFound = errors.New("layer not found")

	// ErrReadOnly indicates modification was attempted on a read-only layer.
	ErrReadOnly = errors.New("configuration layer is read-only")
)
