/*
Package observability provides tools for monitoring the booking wizard.

It turns lifecycle hooks into Prometheus metrics and structured log records,
and merges several hook sets into one with Combine.
*/
package observability
