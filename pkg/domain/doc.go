// Package domain holds the core value types of the intake engine: the
// accumulated symptom snapshot, the intent taxonomy, the assessment tree
// node and condition variants, and the session record.
//
// Everything in this package is pure data plus pure functions. All failure
// originates at collaborator boundaries or in the session engine; nothing
// here performs IO.
package domain
