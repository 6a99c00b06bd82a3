// Package runtime implements the booking wizard state machine.
//
// A Machine owns the wizard context of one session. It consults the step
// registry and the validation rules on every transition, consumes the area
// check and scheduling controllers, and hands the finished booking to the
// submission collaborator.
package runtime
