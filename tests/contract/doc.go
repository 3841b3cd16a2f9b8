//go:build contract

// Package contract runs the checker against recorded status API responses.
// The golden files under testdata/ were captured from a live service, so these
// tests pin the response shapes the checker must accept without starting one.
package contract
