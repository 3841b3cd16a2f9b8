// Package integration runs the status API and the contract checker against
// real PostgreSQL, MongoDB and Redis instances started with testcontainers.
//
// Run with: go test -tags=integration ./tests/integration/...
package integration
