package station

import (
	"fmt"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// MagneticVariation returns the magnetic declination at pos on the given date,
// in degrees (+East, -West), from the World Magnetic Model at the surface.
func MagneticVariation(pos Position, at time.Time) (float64, error) {
	if !pos.Valid() {
		return 0, fmt.Errorf("position out of range: %.4f, %.4f", pos.Latitude, pos.Longitude)
	}

	loc := egm96.NewLocationGeodetic(pos.Latitude, pos.Longitude, 0)

	mag, err := wmm.CalculateWMMMagneticField(loc, at)
	if err != nil {
		return 0, fmt.Errorf("calculating magnetic field: %w", err)
	}

	return mag.D(), nil
}
