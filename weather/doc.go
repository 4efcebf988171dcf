// Package weather defines the domain types shared by the upstream
// client, the assistant and the HTTP layer, plus the pure helpers that
// turn raw readings into the phrasing the assistant uses.
package weather
