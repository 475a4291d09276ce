package metar

import (
	"strings"

	"k8s.io/utils/ptr"
)

// Tokenize splits a raw report on whitespace. Order and duplicates are kept.
func Tokenize(raw string) []string {
	return strings.Fields(raw)
}

// Decode tokenizes, decodes and classifies a raw report. It never fails:
// groups it does not understand are skipped and their fields keep defaults.
func Decode(raw string) Conditions {
	c := DecodeTokens(Tokenize(raw))
	c.Raw = raw
	c.Category = Classify(c.Ceiling, c.Visibility)
	return c
}

// DecodeTokens interprets report tokens field by field. The category is left
// at its default; use Classify or Decode to fill it in.
//
// Every token is tested against every group pattern. For all fields except the
// ceiling the last matching token wins. The ceiling is the lowest broken,
// overcast or vertical-visibility layer seen.
//
// Visibility reads one token back: "1 1/2SM" arrives as the tokens "1" and
// "1/2SM", and the whole miles are added to the fraction.
func DecodeTokens(tokens []string) Conditions {
	c := NewConditions()

	var lowestCeiling *float64

	for i, part := range tokens {
		// Wind
		if dir, hasDir, spd, hasSpd, ok := parseWind(part); ok {
			if hasDir {
				c.WindDirection = ptr.To(dir)
			}
			if hasSpd {
				c.WindSpeed = spd
			}
		}

		// Visibility, including the split whole-plus-fraction form
		if vis, ok := parseVisibility(part); ok {
			if i > 0 {
				if whole, ok := wholeMiles(tokens[i-1]); ok {
					vis += float64(whole)
				}
			}
			c.Visibility = vis
		}

		// Ceiling
		if height, ok := parseCeiling(part); ok {
			if lowestCeiling == nil || height < *lowestCeiling {
				lowestCeiling = ptr.To(height)
			}
		}

		// Temperature and dew point
		if temp, ok := parseTemperature(part); ok {
			c.Temperature = temp
		}

		// Altimeter
		if alt, ok := parseAltimeter(part); ok {
			c.Altimeter = alt
		}
	}

	if lowestCeiling != nil {
		c.Ceiling = *lowestCeiling
	}

	return c
}
