// Package http exposes booking sessions as a JSON API with a server-sent
// event stream of state diffs, routed with chi.
package http
