package metar

// Classify derives the flight category from a ceiling in feet and a
// visibility in statute miles. LIFR and IFR use strict bounds, MVFR is
// inclusive at 3000 ft and 5 SM.
func Classify(ceilingFt, visibilitySM float64) Category {
	switch {
	case ceilingFt < 500 || visibilitySM < 1:
		return LIFR
	case ceilingFt < 1000 || visibilitySM < 3:
		return IFR
	case ceilingFt <= 3000 || visibilitySM <= 5:
		return MVFR
	default:
		return VFR
	}
}
