// Package keys resolves the signing key used to mint host tokens.
//
// Key material and the optional key identifier are each taken from the first configured
// source in priority order: inline string, file, environment variable. Material is parsed
// once, against the family implied by the algorithm name, and is immutable afterwards.
package keys
