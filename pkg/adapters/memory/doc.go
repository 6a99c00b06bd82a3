// Package memory provides in-memory implementations of the ports:
// a state store, a service catalog, an area checker, weekly-rule
// availability (slots and calendar) and a booking sink.
//
// They back tests, demos and single-node deployments.
package memory
