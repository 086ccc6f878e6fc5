// Package codec provides the payload encode/decode layer for submux.
//
// The default is JSON both ways: any JSON-representable value round-trips
// through publish and dispatch structurally intact (objects become
// map[string]any, arrays []any, numbers float64).
//
// Two customization points exist, configured through pubsub options rather
// than directly here:
//
//   - A Reviver, a per-key hook run bottom-up over every decoded value tree.
//     Use it to rehydrate domain types from their JSON form without replacing
//     the whole deserializer.
//   - A full custom serializer/deserializer pair (FuncCodec) for non-JSON
//     wire formats.
//
// A reviver and a full deserializer are mutually exclusive; the registry
// rejects a configuration with both at construction.
//
// Decode errors are never fatal to dispatch. The registry catches them and
// delivers the raw payload bytes instead, so one malformed message cannot
// starve listeners.
package codec
