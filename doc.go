/*
Package bookflow is the core of a multi-step booking wizard: the state machine a
visitor walks through to book a service, independent of any UI or transport.

A booking passes through up to eight steps: area check, service, options,
pets, frequency, date and time, customer details and review. Some of them are
conditional on form settings or on the selected service. The engine decides
which step is current, which fields are valid, when the visitor may move on
and when the booking may be submitted.

# Concept

Every session owns one wizard context. Presentation code calls Session methods
(SetFieldValue, Advance, SelectDate, Submit...), each of which runs to
completion before the next one starts. Slow collaborators (the area checker,
the slot provider, the submitter) are called outside the session lock, and
their answers are applied only if no newer request superseded them.

# Key Features

  - Declarative steps: visibility and completion are predicates over the context.
  - Inline validation: errors appear on advance and clear on input.
  - Debounced area check: a burst of keystrokes results in one request.
  - Stale-safe scheduling: slots of a previously selected date never leak in.
  - Resumable sessions: Snapshot and Resume round-trip the full state.

# Usage

	catalog, _ := memory.NewCatalog(services...)
	availability, _ := memory.NewAvailability(memory.AvailabilityConfig{
		Rules: []memory.WeeklyRule{{Day: "monday", Start: "09:00", End: "17:00"}},
	})

	eng, err := bookflow.New(
		bookflow.WithCatalog(catalog),
		bookflow.WithAreaChecker(memory.NewAreaChecker(memory.Area{Name: "Downtown", Prefixes: []string{"123"}})),
		bookflow.WithSlotProvider(availability),
	)
	if err != nil {
		log.Fatal(err)
	}

	s, err := eng.Start(ctx, "")
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	_ = s.SetFieldValue(ctx, domain.FieldZip, "12345")
	// ... once the area check passed
	if err := s.Advance(ctx); err != nil {
		var blocked *bookflow.StepBlockedError
		// render the field errors
	}

Persist sessions by subscribing to changes and saving Snapshot values through a
ports.StateStore (see pkg/session), and serve them over HTTP with
pkg/adapters/http.
*/
package bookflow
