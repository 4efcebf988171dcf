// Package session houses concrete implementations of the core.SessionStore.
// The interface itself (and the Session struct) live in the core package to
// centralize domain contracts; keeping only implementations here prevents
// higher level packages (agent, server) from depending on concrete storage.
//
// The in-memory store scopes sessions per user, expires them after an idle
// window that slides on every message, and removes them lazily on read or in
// bulk via the background Sweeper. It hands out deep copies, so callers never
// observe another goroutine's mutations.
package session
