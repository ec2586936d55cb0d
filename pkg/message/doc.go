// Package message defines the message type flowing through value triggers.
//
// A Message is a loosely typed JSON-like object. The package provides field
// access by path, numeric coercion of field values, and a persistence-safe
// deep copy (Sanitize) that removes transport handles a message may carry.
//
// # Field Paths
//
// Paths use dot notation with optional bracket indices:
//
//	payload
//	payload.temperature
//	readings[2].value
//	headers["content-type"]
package message
