package hostjwt

import (
	gjwt "github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/hostjwt/jwt"
)

// Host is the per-host view handed in by the inventory framework.
//
// Properties must not be mutated by the provider; Attributes is the host's own output
// collection and is written at most once per Determine call.
type Host interface {
	Name() string
	Properties() map[string]any
	Attributes() map[string]any
}

// Claims is the final token payload.
type Claims = gjwt.MapClaims

// Issued is the value stored in the host's attributes under the target key.
type Issued struct {
	Payload Claims     `json:"payload" yaml:"payload"`
	Token   *jwt.Token `json:"token" yaml:"token"`
}
