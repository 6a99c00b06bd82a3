/*
Package ports defines the driven ports (interfaces) of the booking wizard.

These interfaces decouple the wizard core from the remote collaborators it
talks to and from the storage backends sessions are persisted in.

# Key Interfaces

  - AreaChecker: verifies a postal code against the serviceable area.
  - SlotProvider: lists the available time slots of a date.
  - Calendar: flags calendar days that cannot be booked.
  - Submitter: receives the final booking request.
  - ServiceCatalog: supplies the bookable services and their options.
  - EventPublisher: announces accepted bookings to other systems.
  - StateStore: persists and loads session Snapshots.
  - DistributedLocker: coordinates concurrent session access across replicas.
*/
package ports
