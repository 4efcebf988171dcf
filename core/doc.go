// Package core provides the foundational domain types and contracts for the
// weather assistant's conversation state layer. It defines:
//
//   - Messages and Sessions (per-user conversational containers with an
//     append-only, chronological message history)
//   - The SessionStore contract for multi-tenant session management with
//     idle-based expiry
//   - SessionStats for observability of a tenant's session population
//
// The package intentionally keeps implementation concerns (in-memory maps,
// sweeping, HTTP) out of scope, exposing small interfaces so alternative
// backends can be substituted in tests or production without touching
// calling code.
package core
