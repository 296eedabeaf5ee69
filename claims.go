package hostjwt

import (
	"math"
	"time"
)

// BuildClaims assembles the payload: sub, iat, nbf/exp when a duration is set, then the
// request's explicit claims merged last. Explicit claims overwrite computed ones of the
// same name, sub included.
func BuildClaims(req IssuanceRequest, sub string, now time.Time) Claims {
	issuedAt := now.Unix()

	claims := make(Claims, len(req.Claims)+4)
	claims["sub"] = sub
	claims["iat"] = issuedAt
	if req.Duration != nil && *req.Duration >= 0 {
		claims["nbf"] = issuedAt
		claims["exp"] = expiresAt(issuedAt, *req.Duration)
	}
	for k, v := range req.Claims {
		claims[k] = v
	}
	return claims
}

// expiresAt stays in whole seconds because time.Duration overflows past about 292 years.
// The sum saturates at MaxInt64.
func expiresAt(issuedAt, seconds int64) int64 {
	if seconds > math.MaxInt64-issuedAt {
		return math.MaxInt64
	}
	return issuedAt + seconds
}
