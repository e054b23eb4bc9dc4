package g3d

import "errors"

// Engine errors.
var (
	// ErrEngineDestroyed is returned by every operation on a destroyed engine.
	ErrEngineDestroyed = errors.New("g3d: engine destroyed")

	// ErrForeignEngine is returned when a handle or descriptor created by one
	// engine is passed to another.
	ErrForeignEngine = errors.New("g3d: object belongs to another engine")

	// ErrProviderNotHAL is returned when a device provider does not expose
	// its hal.Device and hal.Queue.
	ErrProviderNotHAL = errors.New("g3d: provider does not expose a HAL device")
)

// Buffer ownership errors.
var (
	// ErrEmptyBuffer is returned when a descriptor would wrap zero bytes.
	ErrEmptyBuffer = errors.New("g3d: empty buffer")

	// ErrDescriptorConsumed is returned when a released descriptor is used again.
	ErrDescriptorConsumed = errors.New("g3d: buffer descriptor already consumed")

	// ErrUnknownAsset is returned when an Asset name is not in the asset table.
	ErrUnknownAsset = errors.New("g3d: unknown asset")

	// ErrBufferOverflow is returned when uploaded data does not fit the target.
	ErrBufferOverflow = errors.New("g3d: data exceeds resource size")
)

// Builder and handle errors.
var (
	// ErrBuilderConsumed is returned by a second Build and wrapped by the
	// panic raised when a consumed builder is modified.
	ErrBuilderConsumed = errors.New("g3d: builder already consumed")

	// ErrMissingField is returned when Build finds a required parameter unset.
	ErrMissingField = errors.New("g3d: missing required field")

	// ErrInvalidArgument is returned for out-of-range builder parameters.
	ErrInvalidArgument = errors.New("g3d: invalid argument")

	// ErrInvalidHandle is returned for zero-value handles.
	ErrInvalidHandle = errors.New("g3d: invalid handle")

	// ErrStaleHandle is returned for handles whose resource was destroyed.
	ErrStaleHandle = errors.New("g3d: stale handle")

	// ErrResourceInUse is returned when destroying a resource others depend on.
	ErrResourceInUse = errors.New("g3d: resource in use")
)

// Texture errors.
var (
	// ErrUnsupportedFormat is returned when the engine cannot create a
	// texture in the requested format.
	ErrUnsupportedFormat = errors.New("g3d: unsupported texture format")

	// ErrFormatMismatch is returned when pixel data does not match the
	// texture's format.
	ErrFormatMismatch = errors.New("g3d: pixel data does not match texture format")
)
