// Package hostjwt decides, per managed host, whether to mint a signed claims-bearing token,
// and if so builds the claims and stores a deferred signed token in the host's attributes.
//
// A [Provider] is built once through [Builder.Build]: the signing key is loaded and the
// subject template compiled at that point and never change afterwards. [Provider.Determine]
// is then called once per host, from as many goroutines as the caller likes.
//
// # Per-host flow
//
//   - The host's properties under the target key (default "hocho_jwt") are the override
//     mapping. Without issue: true the call returns and writes nothing.
//   - With no signing key, fail_when_no_signing_key decides between [ErrNoSigningKey] and a
//     silent skip.
//   - Otherwise the sub claim is rendered, iat/nbf/exp are stamped, explicit claims are merged
//     last, and {payload, token} is written to the host's attributes under the target key.
//
// # What this package must NOT do
//
//   - Verify, persist or revoke tokens.
//   - Expose the signing key to subject templates.
//   - Mutate host properties.
package hostjwt
