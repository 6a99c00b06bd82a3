/*
Package domain contains the core models of the booking wizard.

It defines the entities the state machine works with: Steps, Fields, the
wizard Context, area-check results, available slots and the serialisable
session Snapshot. This package is kept pure and free of I/O, following
Hexagonal Architecture principles.

# Key Entities

  - Step: one pane of the wizard, with its fields and visibility predicate.
  - FieldState: the value, touched flag and error code of a single input.
  - Context: the aggregate the visibility and validation predicates read.
  - AreaCheckResult: the lifecycle of a postal code verification.
  - Snapshot: a point-in-time copy of a session, used by stores and diffs.
*/
package domain
