// Package audit records the outcome of every issuance decision that asked for a token.
//
// A [Queue] is built once per provider with the provider's target and key identity. It
// stamps each published [Event] with an ID and time and delivers it to a [Sink] on one
// goroutine, so a slow sink only delays issuance when drop-if-full is off.
package audit
