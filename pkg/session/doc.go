// Package session provides per-key mutual exclusion for conversational
// work. Turns within one session or conversation depend on the previous
// turn's result, so they must run strictly sequentially; turns for
// different keys proceed in parallel. A single global lock would serialize
// unrelated conversations, so locks are keyed and garbage collected by
// reference counting.
package session
