// Package cas provides content addressing for composed artifacts and report inputs.
//
// Identities are SHA-256 digests with domain separation over either the raw
// artifact bytes or the RFC 8785 canonical JSON form of a structured value.
// The package imports nothing internal so every other package may use it.
package cas
