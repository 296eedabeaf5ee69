package hostjwt

import "errors"

var (
	// ErrConfiguration is returned by Build for unusable provider configuration:
	// unsupported algorithm, malformed key material, bad subject template.
	ErrConfiguration = errors.New("invalid provider configuration")
	// ErrNoSigningKey is returned by Determine when issuance is requested, no key is loaded
	// and fail_when_no_signing_key is true.
	ErrNoSigningKey = errors.New("cannot issue token, no signing key is present")
	// ErrTemplate is returned by Determine when the subject template fails to render.
	ErrTemplate = errors.New("subject template failed")
	// ErrInvalidRequest is returned by Determine when a recognized override carries a bad value.
	ErrInvalidRequest = errors.New("invalid issuance request")
)
