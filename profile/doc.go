// Package profile holds enrolled employee voice profiles. The store
// keeps the active profile set behind an atomic pointer so readers on
// the classification path never block on a reload; Reload swaps the
// whole set in one step and keeps the previous set when fetching fails.
package profile
