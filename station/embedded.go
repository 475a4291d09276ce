package station

import (
	_ "embed"
)

//go:embed assets/airports.csv
var embeddedAirports string

// Embedded loads the built-in station directory. It covers major airports
// only and is used when no directory file is configured.
func Embedded(opts ...Option) *Directory {
	return Load(embeddedAirports, opts...)
}
