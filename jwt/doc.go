// Package jwt holds the deferred signed token handed back for each issuing host.
//
// A Token keeps its claims, headers and key; the compact serialization is produced on
// demand by golang-jwt, so the token can sit in a host's attributes until it is printed.
package jwt
