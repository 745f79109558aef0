package config

import (
	"github.com/dshills/quicky/internal/config/layer"
	"github.com/dshills/quicky/internal/config/loader"
)

// Errors returned by configuration operations.
var (
	// ErrReadOnly indicates modification was attempted on a read-only layer.
	ErrReadOnly = layer.ErrReadOnly

	// ErrLayerNotFound indicates no layer serves the requested write target.
	ErrLayerNotFound = layer.ErrLayerNotFound

	// ErrUnsupportedFormat indicates a settings file extension that cannot be decoded.
	ErrUnsupportedFormat = loader.ErrUnsupportedFormat
)

// ParseError represents an error while parsing a settings file.
type ParseError = loader.ParseError
