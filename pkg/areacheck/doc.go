/*
Package areacheck verifies postal codes against the serviceable area with a
trailing-edge debounce.

Every input bumps a monotonic request token. A timer fires after the input
has been quiet for the debounce interval and issues exactly one request to
the ports.AreaChecker. A response is applied only if its token is still the
current one; anything older is discarded on arrival, whatever order the
responses resolve in.

Invalid or empty input never reaches the collaborator: the result returns
to Idle and the local *validation.FieldError is returned to the caller.
*/
package areacheck
