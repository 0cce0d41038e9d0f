package util

// Ptr returns a pointer to the given value.
// Used for the optional fields of protocol structs.
func Ptr[T any](v T) *T {
	return &v
}
