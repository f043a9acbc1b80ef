// Package ports defines the interfaces between the intake engine and its
// infrastructure: state stores, the optional distributed locker, and the
// external NLU collaborators.
package ports
