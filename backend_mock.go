//go:build mock

package main

// Builds with the mock tag default to the in-memory radio.
const defaultBackend = "mock"
