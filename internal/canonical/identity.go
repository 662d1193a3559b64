package canonical

import "reflect"

// objectIdentity returns a stable, comparable identity for a map value so
// the encoder can detect a map nested within itself (circular references).
// Go maps are reference types; two encodings of the same live map share the
// same backing pointer for the lifetime of the encode call.
func objectIdentity(obj map[string]any) any {
	return reflect.ValueOf(obj).Pointer()
}
