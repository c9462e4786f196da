package service

import (
	"fmt"
	"strings"
)

const (
	kgPerLb = 0.45359237
	cmPerIn = 2.54
)

func convertWeightToKg(value float64, unit string) (float64, error) {
	if value <= 0 {
		return 0, fmt.Errorf("weight must be > 0")
	}
	switch u := strings.ToLower(strings.TrimSpace(unit)); u {
	case "", "kg":
		return value, nil
	case "lb", "lbs":
		return value * kgPerLb, nil
	default:
		return 0, fmt.Errorf("invalid weight unit %q (use kg or lb)", unit)
	}
}

func convertHeightToCm(value float64, unit string) (float64, error) {
	if value <= 0 {
		return 0, fmt.Errorf("height must be > 0")
	}
	switch u := strings.ToLower(strings.TrimSpace(unit)); u {
	case "", "cm":
		return value, nil
	case "m":
		return value * 100, nil
	case "in":
		return value * cmPerIn, nil
	default:
		return 0, fmt.Errorf("invalid height unit %q (use cm, m or in)", unit)
	}
}
