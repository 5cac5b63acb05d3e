// Package server implements the HTTP and WebSocket transport for the chat core.
//
// The implementation is organized into specialized files for configuration,
// origin checks, the connection hub, clients, routing, and HTTP handlers.
// All chat state lives in internal/chat; this package only converts frames
// to Router calls and Router events back to frames.
package server
