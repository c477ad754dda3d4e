package model

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrPropMissing   = errors.New("required property is missing")
	ErrPropMalformed = errors.New("property is not numeric")
)

// Props is the string-keyed configuration bag the simulation consumes.
// Values are kept as strings so scenario files stay free-form; the
// typed accessors fail fast instead of defaulting, because a silently
// substituted value would corrupt every quality prediction derived
// from it.
type Props map[string]string

// Property keys consumed by the core. Times are simulation ticks,
// bandwidth is an abstract per-link ceiling.
const (
	PropMaxBandwidth          = "max_bandwidth"
	PropStartupTimeMin        = "startup_time_min"
	PropStartupTimeMax        = "startup_time_max"
	PropReadyTimeMin          = "ready_time_min"
	PropReadyTimeMax          = "ready_time_max"
	PropLinkActivationTimeMin = "link_activation_time_min"
	PropLinkActivationTimeMax = "link_activation_time_max"
)

// Int returns the property as an integer, or a descriptive error when
// the key is absent or non-numeric.
func (p Props) Int(key string) (int, error) {
	raw, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrPropMissing, key)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q=%q", ErrPropMalformed, key, raw)
	}
	return v, nil
}

// Float returns the property as a float64, or a descriptive error when
// the key is absent or non-numeric.
func (p Props) Float(key string) (float64, error) {
	raw, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrPropMissing, key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q=%q", ErrPropMalformed, key, raw)
	}
	return v, nil
}

// IntRange reads a min/max key pair and validates min <= max.
func (p Props) IntRange(minKey, maxKey string) (int, int, error) {
	lo, err := p.Int(minKey)
	if err != nil {
		return 0, 0, err
	}
	hi, err := p.Int(maxKey)
	if err != nil {
		return 0, 0, err
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("property range %q..%q is inverted (%d > %d)", minKey, maxKey, lo, hi)
	}
	return lo, hi, nil
}

// Clone returns an independent copy of the bag.
func (p Props) Clone() Props {
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
