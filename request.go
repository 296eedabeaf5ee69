package hostjwt

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Override keys read from host.Properties()[target].
const (
	keyIssue                  = "issue"
	keyDuration               = "duration"
	keyClaims                 = "claims"
	keyFailWhenNoSigningKey   = "fail_when_no_signing_key"
	aliasFailWhenNoSigningKey = "failWhenNoSigningKey"
)

// IssuanceRequest is the effective per-host issuance policy.
type IssuanceRequest struct {
	Issue bool
	// Duration is the token lifetime in seconds; nil means no nbf/exp.
	Duration             *int64
	Claims               map[string]any
	FailWhenNoSigningKey bool
}

// DefaultRequest returns the policy applied when a host overrides nothing.
func DefaultRequest() IssuanceRequest {
	return IssuanceRequest{
		Issue:                false,
		Claims:               map[string]any{},
		FailWhenNoSigningKey: true,
	}
}

// ResolveRequest shallow-merges overrides onto defaults. Recognized keys replace the default
// value wholesale (claims are not deep-merged); unknown keys are ignored.
func ResolveRequest(defaults IssuanceRequest, overrides map[string]any) (IssuanceRequest, error) {
	req := defaults
	if req.Claims == nil {
		req.Claims = map[string]any{}
	}

	for key, raw := range overrides {
		switch key {
		case keyIssue:
			v, err := asBool(key, raw)
			if err != nil {
				return IssuanceRequest{}, err
			}
			req.Issue = v
		case keyDuration:
			if raw == nil {
				req.Duration = nil
				continue
			}
			v, err := asSeconds(raw)
			if err != nil {
				return IssuanceRequest{}, err
			}
			req.Duration = &v
		case keyClaims:
			if raw == nil {
				req.Claims = map[string]any{}
				continue
			}
			v, ok := raw.(map[string]any)
			if !ok {
				return IssuanceRequest{}, fmt.Errorf("%w: claims must be a mapping, got %T", ErrInvalidRequest, raw)
			}
			req.Claims = v
		case keyFailWhenNoSigningKey, aliasFailWhenNoSigningKey:
			v, err := asBool(key, raw)
			if err != nil {
				return IssuanceRequest{}, err
			}
			req.FailWhenNoSigningKey = v
		}
	}

	return req, nil
}

// issueRequested reports whether the host's raw overrides ask for a token, independent of
// defaults. Only a non-boolean issue value is an error; other keys are not inspected.
func issueRequested(overrides map[string]any) (bool, error) {
	return asBool(keyIssue, overrides[keyIssue])
}

func asBool(key string, raw any) (bool, error) {
	switch v := raw.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	default:
		return false, fmt.Errorf("%w: %s must be a boolean, got %T", ErrInvalidRequest, key, raw)
	}
}

// asSeconds accepts whole seconds as any numeric type, numeric strings, or Go duration strings.
func asSeconds(raw any) (int64, error) {
	var secs int64
	switch v := raw.(type) {
	case int:
		secs = int64(v)
	case int8:
		secs = int64(v)
	case int16:
		secs = int64(v)
	case int32:
		secs = int64(v)
	case int64:
		secs = v
	case uint:
		secs = int64(v)
	case uint8:
		secs = int64(v)
	case uint16:
		secs = int64(v)
	case uint32:
		secs = int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: duration out of range", ErrInvalidRequest)
		}
		secs = int64(v)
	case float32:
		return floatSeconds(float64(v))
	case float64:
		return floatSeconds(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: duration %q is not an integer", ErrInvalidRequest, v.String())
		}
		secs = n
	case time.Duration:
		secs = int64(v / time.Second)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			secs = n
			break
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("%w: duration %q is neither seconds nor a duration", ErrInvalidRequest, v)
		}
		secs = int64(d / time.Second)
	default:
		return 0, fmt.Errorf("%w: duration must be a number of seconds, got %T", ErrInvalidRequest, raw)
	}

	if secs < 0 {
		return 0, fmt.Errorf("%w: duration must not be negative", ErrInvalidRequest)
	}
	return secs, nil
}

func floatSeconds(f float64) (int64, error) {
	if f != math.Trunc(f) || f > math.MaxInt64 || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: duration %v is not a whole number of seconds", ErrInvalidRequest, f)
	}
	if f < 0 {
		return 0, fmt.Errorf("%w: duration must not be negative", ErrInvalidRequest)
	}
	return int64(f), nil
}
