package metar

import (
	"math"
	"strconv"
	"strings"
)

// parseWind parses a wind group in the format "DDDSSKT" or "DDDSSGGGKT".
// Only the first two speed digits are read; gusts are ignored.
func parseWind(part string) (direction int, hasDirection bool, speed int, hasSpeed bool, ok bool) {
	if !strings.HasSuffix(part, knotsSuffix) {
		return 0, false, 0, false, false
	}

	wind := strings.TrimSuffix(part, knotsSuffix)
	if len(wind) < 5 {
		return 0, false, 0, false, false
	}

	if dir, err := strconv.Atoi(wind[:3]); err == nil {
		direction, hasDirection = dir, true
	}

	if spd, err := strconv.Atoi(wind[3:5]); err == nil {
		speed, hasSpeed = spd, true
	}

	return direction, hasDirection, speed, hasSpeed, true
}

// parseVisibility parses a statute-mile group such as "10SM" or "1/2SM".
func parseVisibility(part string) (float64, bool) {
	if !strings.HasSuffix(part, statuteMileSuffix) {
		return 0, false
	}
	return parseVisibilityNumber(strings.TrimSuffix(part, statuteMileSuffix))
}

// parseVisibilityNumber accepts a decimal number or a "numerator/denominator"
// fraction. Negative and non-finite values are rejected.
func parseVisibilityNumber(s string) (float64, bool) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, validVisibility(v)
	}

	num, den, found := strings.Cut(s, "/")
	if !found || strings.Contains(den, "/") {
		return 0, false
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}

	v := n / d
	return v, validVisibility(v)
}

func validVisibility(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// wholeMiles reports whether part is a bare non-negative integer, the leading
// half of "1 1/2SM".
func wholeMiles(part string) (int, bool) {
	n, err := strconv.Atoi(part)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// parseCeiling parses a "BKN020", "OVC007" or "VV003" layer into feet.
// FEW and SCT layers are not ceilings and never match.
func parseCeiling(part string) (float64, bool) {
	if len(part) < 6 || !hasCeilingPrefix(part) {
		return 0, false
	}

	hundreds, err := strconv.ParseFloat(part[len(part)-3:], 64)
	if err != nil || math.IsNaN(hundreds) || math.IsInf(hundreds, 0) {
		return 0, false
	}

	return hundreds * 100, true
}

func hasCeilingPrefix(part string) bool {
	for _, prefix := range ceilingPrefixes {
		if strings.HasPrefix(part, prefix) {
			return true
		}
	}
	return false
}

// parseTemperature parses a "TT/DD" group, where either side may carry an M
// prefix for negative values, and returns the temperature half.
func parseTemperature(part string) (float64, bool) {
	temp, dew, found := strings.Cut(part, "/")
	if !found || strings.Contains(dew, "/") {
		return 0, false
	}

	if !isTempNumber(temp) || !isTempNumber(dew) {
		return 0, false
	}

	return parseSignedTemp(temp), true
}

// isTempNumber rejects things like "R35" or "P2000" that share the slash form.
func isTempNumber(s string) bool {
	digits := strings.TrimPrefix(s, minusMarker)
	if digits == "" || len(digits) > 3 {
		return false
	}

	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseSignedTemp(s string) float64 {
	sign := 1.0
	if strings.HasPrefix(s, minusMarker) {
		sign = -1.0
		s = strings.TrimPrefix(s, minusMarker)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v * sign
}

// parseAltimeter parses "A2992" (hundredths of inHg) or "Q1013" (hPa) into inHg.
func parseAltimeter(part string) (float64, bool) {
	if len(part) != 5 {
		return 0, false
	}

	prefix := part[0]
	if prefix != 'A' && prefix != 'Q' {
		return 0, false
	}

	v, err := strconv.ParseFloat(part[1:], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	if prefix == 'A' {
		return v / 100.0, true
	}
	return v * hPaPerInHg, true
}
