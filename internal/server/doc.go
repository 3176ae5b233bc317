// Package server runs the facility-sync HTTP transport.
//
// It owns the listener lifecycle: start-up, signal handling, and graceful
// shutdown that lets in-flight sync sessions finish.
package server
