/*
Package scheduling manages date selection, the asynchronous fetch of the
available time slots of that date, and slot selection.

Selecting a date clears the selected slot and empties the slot list until
the fetch for that date resolves. Fetch results are applied only if both the
request token and the date still match; stale responses are discarded.
*/
package scheduling
