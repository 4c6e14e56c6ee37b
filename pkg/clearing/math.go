package clearing

import (
	sdkmath "cosmossdk.io/math"
)

// mulDiv computes a*b/denom with an arbitrary-precision intermediate and
// truncation toward zero. Results that do not fit int64 are an overflow.
func mulDiv(a, b, denom int64) (int64, error) {
	if denom == 0 {
		return 0, ErrDivisionByZero
	}
	out := sdkmath.NewInt(a).Mul(sdkmath.NewInt(b)).Quo(sdkmath.NewInt(denom))
	if !out.IsInt64() {
		return 0, ErrMathOverflow
	}
	return out.Int64(), nil
}

// checkedAdd guards int64 addition on settlement counters.
func checkedAdd(a, b int64) (int64, error) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, ErrMathOverflow
	}
	return s, nil
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
