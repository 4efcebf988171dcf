// Package testutil provides shared helpers for tests across the assistant's
// packages, primarily a settable clock for driving TTL expiry
// deterministically without sleeping.
package testutil
