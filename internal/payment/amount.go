package payment

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// maxMinorUnits caps charges well below float64 integer precision.
const maxMinorUnits = 1_000_000_000_00

// ErrInvalidAmount is returned for prices that are not positive finite numbers.
var ErrInvalidAmount = errors.New("price must be a positive number")

// ParsePrice accepts a JSON number or a numeric string.
func ParsePrice(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, ErrInvalidAmount
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, ErrInvalidAmount
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return n, nil
}

// ToMinorUnits converts a major unit price to integer minor units (cents).
func ToMinorUnits(price float64) (int64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, ErrInvalidAmount
	}
	minor := math.Round(price * 100)
	if minor < 1 || minor > maxMinorUnits {
		return 0, ErrInvalidAmount
	}
	return int64(minor), nil
}
