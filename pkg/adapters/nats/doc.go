// Package nats announces accepted bookings on a NATS JetStream stream, either
// on a remote server or on an embedded one started in-process.
package nats
