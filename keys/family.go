package keys

import (
	"crypto"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Family is the key type required by an algorithm.
type Family int

const (
	// FamilyEC covers the ES* algorithms.
	FamilyEC Family = iota + 1
	// FamilyRSA covers the RS* algorithms.
	FamilyRSA
)

var (
	// ErrUnsupportedAlgorithm is returned for algorithms outside the ES and RS families.
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	// ErrMalformedKey is returned when key material cannot be parsed for the algorithm family.
	ErrMalformedKey = errors.New("malformed signing key")
	// ErrKeyIDUnavailable is returned when a configured key identifier source yields nothing.
	ErrKeyIDUnavailable = errors.New("key identifier unavailable")
)

func (f Family) String() string {
	switch f {
	case FamilyEC:
		return "EC"
	case FamilyRSA:
		return "RSA"
	default:
		return "unknown"
	}
}

// FamilyFor maps an algorithm name to its key family by prefix.
func FamilyFor(algorithm string) (Family, error) {
	switch {
	case strings.HasPrefix(algorithm, "ES"):
		return FamilyEC, nil
	case strings.HasPrefix(algorithm, "RS"):
		return FamilyRSA, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
}

// methodFor returns the registered signing method for algorithm, checked against family.
func methodFor(algorithm string, family Family) (jwt.SigningMethod, error) {
	method := jwt.GetSigningMethod(algorithm)
	switch m := method.(type) {
	case *jwt.SigningMethodECDSA:
		if family == FamilyEC {
			return m, nil
		}
	case *jwt.SigningMethodRSA:
		if family == FamilyRSA {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
}

func parsePrivateKey(pem []byte, family Family, method jwt.SigningMethod) (crypto.Signer, error) {
	switch family {
	case FamilyEC:
		key, err := jwt.ParseECPrivateKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
		}
		if err := checkCurve(key, method.(*jwt.SigningMethodECDSA)); err != nil {
			return nil, err
		}
		return key, nil
	case FamilyRSA:
		key, err := jwt.ParseRSAPrivateKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
		}
		return key, nil
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}

func checkCurve(key *ecdsa.PrivateKey, method *jwt.SigningMethodECDSA) error {
	bits := key.Curve.Params().BitSize
	if bits != method.CurveBits {
		return fmt.Errorf("%w: %s requires a %d-bit curve, got %d", ErrMalformedKey, method.Alg(), method.CurveBits, bits)
	}
	return nil
}
