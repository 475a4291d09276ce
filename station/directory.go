// Package station loads a directory of weather-reporting stations from
// tabular text and finds the station nearest to a position.
//
// A Directory is immutable once loaded. To refresh it, load a new one and
// replace the old value.
package station

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Column positions in the source table.
const (
	nameColumn        = 2
	idColumn          = 8
	coordinatesColumn = 12
)

// Position represents a geographic coordinate in degrees.
type Position struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Valid reports whether the position lies within |lat| <= 90 and |lon| <= 180.
func (p Position) Valid() bool {
	return math.Abs(p.Latitude) <= 90 && math.Abs(p.Longitude) <= 180
}

// Record is a single weather-reporting station.
type Record struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location Position `json:"location"`
}

// Directory is an ordered, read-only list of stations. Duplicate identifiers
// are kept as separate entries.
type Directory struct {
	records  []Record
	rejected int
}

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	logger *zap.Logger
}

// WithLogger routes load diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *loadOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Load parses station rows from source. The first line is a header and is
// always skipped. Rows without an identifier or with coordinates that cannot
// be read in either order are dropped and counted in Rejected. Load never
// fails; an empty source gives an empty directory.
func Load(source string, opts ...Option) *Directory {
	o := loadOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.Named("station-directory")

	d := &Directory{}

	for i, line := range strings.Split(source, "\n") {
		if i == 0 {
			continue
		}

		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		record, ok := parseRow(line)
		if !ok {
			d.rejected++
			continue
		}

		d.records = append(d.records, record)
		if len(d.records) <= 3 {
			log.Debug("Parsed station",
				zap.String("id", record.ID),
				zap.String("name", record.Name),
				zap.Float64("lat", record.Location.Latitude),
				zap.Float64("lon", record.Location.Longitude))
		}
	}

	log.Info("Loaded station directory",
		zap.Int("stations", len(d.records)),
		zap.Int("rejected_rows", d.rejected))

	return d
}

// parseRow turns one data line into a Record.
func parseRow(line string) (Record, bool) {
	columns := splitQuoted(line)
	if len(columns) <= 1 || len(columns) <= coordinatesColumn {
		return Record{}, false
	}

	id := columns[idColumn]
	if id == "" {
		return Record{}, false
	}

	pos, ok := parseCoordinates(columns[coordinatesColumn])
	if !ok {
		return Record{}, false
	}

	return Record{
		ID:       id,
		Name:     columns[nameColumn],
		Location: pos,
	}, true
}

// splitQuoted splits a comma separated line. A double quote toggles quoting,
// commas inside quotes are kept, and the quote characters are dropped.
func splitQuoted(line string) []string {
	var (
		fields       []string
		current      strings.Builder
		insideQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			insideQuotes = !insideQuotes
		case r == ',' && !insideQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())

	return fields
}

// parseCoordinates reads an "A, B" pair. The source does not say which value
// is the latitude, so (lon, lat) is tried first and (lat, lon) second; the
// first ordering that is in range wins.
func parseCoordinates(s string) (Position, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Position{}, false
	}

	a, errA := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	b, errB := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errA != nil || errB != nil {
		return Position{}, false
	}

	if pos := (Position{Latitude: b, Longitude: a}); pos.Valid() {
		return pos, true
	}
	if pos := (Position{Latitude: a, Longitude: b}); pos.Valid() {
		return pos, true
	}

	return Position{}, false
}

// Len returns the number of stations.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Records returns a copy of the stations in source order.
func (d *Directory) Records() []Record {
	if d == nil {
		return nil
	}
	result := make([]Record, len(d.records))
	copy(result, d.records)
	return result
}

// Rejected returns how many data rows were dropped during Load.
func (d *Directory) Rejected() int {
	if d == nil {
		return 0
	}
	return d.rejected
}

// Lookup returns the first station whose identifier matches id, ignoring case.
func (d *Directory) Lookup(id string) (Record, bool) {
	if d == nil {
		return Record{}, false
	}

	id = strings.TrimSpace(id)
	for _, r := range d.records {
		if strings.EqualFold(r.ID, id) {
			return r, true
		}
	}
	return Record{}, false
}
