// Package feed defines the hash-feed record model and the parser for the
// on-disk mirror file.
//
// The mirror is the flat CSV export published by the upstream feed. Its
// header line is prefixed with "#" like an ordinary comment but carries
// the quoted column names, so the parser recovers it instead of dropping
// it, then resolves columns by name. Pure comment lines are skipped.
//
// Parsing is tolerant by design: a row with an unparseable timestamp or
// a malformed digest is skipped and counted, never fatal. The feed is an
// external, occasionally messy input; one bad row must not block an
// import of millions of good ones.
package feed
