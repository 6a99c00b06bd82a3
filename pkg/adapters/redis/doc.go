// Package redis stores wizard sessions in Redis and coordinates replicas with
// a Redis-backed distributed lock.
package redis
