package device

import "errors"

// Materialization errors. Only ErrUnresolvedType and ErrConstruction
// degrade to the raw envelope.
var (
	// ErrUnresolvedType indicates a type tag with no registered constructor.
	ErrUnresolvedType = errors.New("unresolved type")

	// ErrConstruction indicates data that does not fit the resolved shape.
	ErrConstruction = errors.New("construction error")

	// ErrPrimitive indicates data that cannot be converted to a primitive
	// alias (int, str, float, list). It is not soft-degraded.
	ErrPrimitive = errors.New("primitive conversion failed")
)

// Handle errors.
var (
	// ErrHandleClosed indicates a call on a closed handle.
	ErrHandleClosed = errors.New("handle closed")
)

// degradable reports whether err should fall back to the raw envelope.
func degradable(err error) bool {
	return errors.Is(err, ErrUnresolvedType) || errors.Is(err, ErrConstruction)
}
