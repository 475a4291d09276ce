// Package metar decodes aviation routine weather reports into numeric
// conditions and classifies them into flight categories.
//
// Only the groups needed for a flight category are understood: wind,
// visibility in statute miles, broken/overcast/vertical-visibility layers,
// temperature and the altimeter setting. Everything else in a report is
// skipped without error.
package metar

// Category is the coarse flight-conditions class derived from ceiling and visibility.
type Category string

const (
	VFR  Category = "VFR"
	MVFR Category = "MVFR"
	IFR  Category = "IFR"
	LIFR Category = "LIFR"
)

func (c Category) String() string {
	return string(c)
}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	switch c {
	case VFR, MVFR, IFR, LIFR:
		return true
	}
	return false
}

// Defaults applied when a report carries no matching group.
const (
	DefaultVisibility  = 10.0
	DefaultAltimeter   = 29.92
	DefaultTemperature = 0.0
	// UnlimitedCeiling stands in for "no broken or overcast layer reported".
	UnlimitedCeiling = 100000.0
)

// Group suffixes and prefixes recognised by the decoder.
const (
	knotsSuffix       = "KT"
	statuteMileSuffix = "SM"
	minusMarker       = "M"
	hPaPerInHg        = 0.02953
)

var ceilingPrefixes = []string{"BKN", "OVC", "VV"}

// Conditions is the decoded content of a single report.
type Conditions struct {
	Raw string `json:"raw"`
	// WindDirection is nil for variable or unreported direction.
	WindDirection *int     `json:"wind_direction"`
	WindSpeed     int      `json:"wind_speed_kt"`
	Visibility    float64  `json:"visibility_sm"`
	Temperature   float64  `json:"temperature_c"`
	Altimeter     float64  `json:"altimeter_inhg"`
	Ceiling       float64  `json:"ceiling_ft"`
	Category      Category `json:"flight_category"`
}

// NewConditions returns a Conditions value holding every default.
func NewConditions() Conditions {
	return Conditions{
		Visibility:  DefaultVisibility,
		Temperature: DefaultTemperature,
		Altimeter:   DefaultAltimeter,
		Ceiling:     UnlimitedCeiling,
		Category:    VFR,
	}
}

// CeilingUnlimited reports whether no ceiling layer was decoded.
func (c Conditions) CeilingUnlimited() bool {
	return c.Ceiling >= UnlimitedCeiling
}
