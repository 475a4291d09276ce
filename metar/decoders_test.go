package metar

import (
	"iter"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/rmitchellscott/nimbus/testdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"
)

var fullWindRegex = regexp.MustCompile(`^(\d{3})(\d{2})KT$`)

func decodeMETARList(t *testing.T) iter.Seq2[string, Conditions] {
	return func(yield func(string, Conditions) bool) {
		scanner := testdata.METAR(t)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if !yield(line, Decode(line)) {
				return
			}
		}
	}
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"KJFK", "36010KT", "10SM", "10SM"}, Tokenize("  KJFK\t36010KT \n 10SM  10SM "))
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize(" \t\n "))
}

func TestDecode_wind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw       string
		direction *int
		speed     int
	}{
		{raw: "36010KT", direction: ptr.To(360), speed: 10},
		{raw: "VRB05KT", direction: nil, speed: 5},
		{raw: "28018G28KT", direction: ptr.To(280), speed: 18},
		{raw: "00000KT", direction: ptr.To(0), speed: 0},
		// three-digit speeds keep only the first two digits
		{raw: "270105KT", direction: ptr.To(270), speed: 10},
		{raw: "2701KT", direction: nil, speed: 0},
		{raw: "KT", direction: nil, speed: 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c := Decode(tt.raw)
			assert.Equal(t, tt.direction, c.WindDirection)
			assert.Equal(t, tt.speed, c.WindSpeed)
		})
	}
}

func TestDecode_visibility(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		tokens []string
		want   float64
	}{
		{name: "whole miles", tokens: []string{"10SM"}, want: 10.0},
		{name: "fraction", tokens: []string{"1/2SM"}, want: 0.5},
		{name: "mixed", tokens: []string{"1", "1/2SM"}, want: 1.5},
		{name: "mixed after wind", tokens: []string{"18005KT", "2", "3/4SM"}, want: 2.75},
		{name: "decimal", tokens: []string{"2.5SM"}, want: 2.5},
		{name: "zero denominator ignored", tokens: []string{"1/0SM"}, want: DefaultVisibility},
		{name: "less than prefix ignored", tokens: []string{"M1/4SM"}, want: DefaultVisibility},
		{name: "greater than prefix ignored", tokens: []string{"P6SM"}, want: DefaultVisibility},
		{name: "meters ignored", tokens: []string{"9999"}, want: DefaultVisibility},
		{name: "last wins", tokens: []string{"3SM", "5SM"}, want: 5.0},
		{name: "infinity ignored", tokens: []string{"INFSM"}, want: DefaultVisibility},
		{name: "signed infinity ignored", tokens: []string{"-InfSM"}, want: DefaultVisibility},
		{name: "nan ignored", tokens: []string{"NANSM"}, want: DefaultVisibility},
		{name: "infinite fraction ignored", tokens: []string{"INF/1SM"}, want: DefaultVisibility},
		{name: "nan fraction ignored", tokens: []string{"NAN/2SM"}, want: DefaultVisibility},
		{name: "overflow ignored", tokens: []string{"1e400SM"}, want: DefaultVisibility},
		{name: "negative ignored", tokens: []string{"-2SM"}, want: DefaultVisibility},
		{name: "negative fraction ignored", tokens: []string{"-1/2SM"}, want: DefaultVisibility},
		{name: "negative whole miles not added", tokens: []string{"-1", "1/2SM"}, want: 0.5},
		{name: "finite value kept after junk", tokens: []string{"2SM", "INFSM"}, want: 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DecodeTokens(tt.tokens)
			assert.InDelta(t, tt.want, c.Visibility, 1e-9)
		})
	}
}

func TestDecode_ceiling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		tokens []string
		want   float64
	}{
		{name: "lowest of broken and overcast", tokens: []string{"BKN020", "OVC007"}, want: 700},
		{name: "lowest seen first", tokens: []string{"OVC007", "BKN020"}, want: 700},
		{name: "vertical visibility", tokens: []string{"VV003"}, want: 300},
		{name: "few and scattered ignored", tokens: []string{"FEW005", "SCT008", "BKN040"}, want: 4000},
		{name: "only few", tokens: []string{"FEW010"}, want: UnlimitedCeiling},
		{name: "cloud type suffix not read", tokens: []string{"BKN018CB"}, want: UnlimitedCeiling},
		{name: "too short", tokens: []string{"OVC"}, want: UnlimitedCeiling},
		{name: "sky clear", tokens: []string{"CLR"}, want: UnlimitedCeiling},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DecodeTokens(tt.tokens)
			assert.Equal(t, tt.want, c.Ceiling)
		})
	}
}

func TestDecode_temperature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want float64
	}{
		{raw: "22/10", want: 22},
		{raw: "22/M05", want: 22},
		{raw: "M02/M10", want: -2},
		{raw: "00/M01", want: 0},
		{raw: "R35/2000", want: DefaultTemperature},
		{raw: "1/2SM", want: DefaultTemperature},
		{raw: "12/10/08", want: DefaultTemperature},
		{raw: "M1234/10", want: DefaultTemperature},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.raw).Temperature)
		})
	}
}

func TestDecode_altimeter(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 29.92, Decode("A2992").Altimeter, 1e-9)
	assert.InDelta(t, 29.92, Decode("Q1013").Altimeter, 0.01)
	assert.InDelta(t, 30.10, Decode("A3010").Altimeter, 1e-9)
	assert.Equal(t, DefaultAltimeter, Decode("A299").Altimeter)
	assert.Equal(t, DefaultAltimeter, Decode("AUTO").Altimeter)
	assert.Equal(t, DefaultAltimeter, Decode("Q10A3").Altimeter)

	// last group wins
	assert.InDelta(t, 30.01, Decode("A2992 A3001").Altimeter, 1e-9)
}

func TestDecode_defaults(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "garbage ### ///"} {
		c := Decode(raw)
		assert.Equal(t, raw, c.Raw)
		assert.Nil(t, c.WindDirection)
		assert.Zero(t, c.WindSpeed)
		assert.Equal(t, DefaultVisibility, c.Visibility)
		assert.Equal(t, DefaultTemperature, c.Temperature)
		assert.Equal(t, DefaultAltimeter, c.Altimeter)
		assert.Equal(t, UnlimitedCeiling, c.Ceiling)
		assert.True(t, c.CeilingUnlimited())
		assert.Equal(t, VFR, c.Category)
	}
}

func TestDecodeTokens_leavesCategoryDefault(t *testing.T) {
	t.Parallel()

	c := DecodeTokens([]string{"1/4SM", "VV001"})
	assert.Equal(t, VFR, c.Category)
	assert.Empty(t, c.Raw)
	assert.Equal(t, LIFR, Classify(c.Ceiling, c.Visibility))
}

func TestDecode_fullReport(t *testing.T) {
	t.Parallel()

	raw := "KSFO 181756Z 28018G28KT 1 1/2SM BR OVC007 14/12 A2998 RMK AO2"
	c := Decode(raw)

	require.NotNil(t, c.WindDirection)
	assert.Equal(t, 280, *c.WindDirection)
	assert.Equal(t, 18, c.WindSpeed)
	assert.Equal(t, 1.5, c.Visibility)
	assert.Equal(t, 700.0, c.Ceiling)
	assert.Equal(t, 14.0, c.Temperature)
	assert.InDelta(t, 29.98, c.Altimeter, 1e-9)
	assert.Equal(t, IFR, c.Category)
	assert.Equal(t, raw, c.Raw)
}

func TestDecode_ceilingWithDefaultVisibilityIsIFR(t *testing.T) {
	t.Parallel()

	c := Decode("BKN020 OVC007")
	assert.Equal(t, 700.0, c.Ceiling)
	assert.Equal(t, DefaultVisibility, c.Visibility)
	assert.Equal(t, IFR, c.Category)
}

func TestDecodeMETAR_idempotent(t *testing.T) {
	t.Parallel()
	for line, first := range decodeMETARList(t) {
		assert.Equal(t, first, Decode(line), line)
	}
}

func TestDecodeMETAR_category(t *testing.T) {
	t.Parallel()
	for line, c := range decodeMETARList(t) {
		assert.True(t, c.Category.Valid(), line)
		assert.Equal(t, Classify(c.Ceiling, c.Visibility), c.Category, line)
		assert.GreaterOrEqual(t, c.Visibility, 0.0, line)
		assert.GreaterOrEqual(t, c.WindSpeed, 0, line)
	}
}

func TestDecodeMETAR_wind(t *testing.T) {
	t.Parallel()
	for line, c := range decodeMETARList(t) {
		fields := strings.Fields(line)
		for _, field := range fields[1:] {
			matches := fullWindRegex.FindStringSubmatch(field)
			if matches == nil {
				continue
			}
			dir, _ := strconv.Atoi(matches[1])
			spd, _ := strconv.Atoi(matches[2])
			require.NotNil(t, c.WindDirection, line)
			assert.Equal(t, dir, *c.WindDirection, line, "wind direction parsed incorrectly")
			assert.Equal(t, spd, c.WindSpeed, line, "wind speed parsed incorrectly")
		}
	}
}

func TestDecodeMETAR_knownStations(t *testing.T) {
	t.Parallel()

	want := map[string]Category{
		"KJFK": VFR,
		"KSFO": IFR,
		"KORD": LIFR,
		"KDEN": MVFR,
		"KSEA": IFR,
		"KBOS": LIFR,
		"KMSP": LIFR,
		"KIAH": MVFR,
		"EGLL": VFR,
		"EDDF": IFR,
		"KMIA": VFR,
	}

	seen := 0
	for line, c := range decodeMETARList(t) {
		station := strings.Fields(line)[0]
		if category, ok := want[station]; ok {
			seen++
			assert.Equal(t, category, c.Category, line)
		}
	}
	assert.Equal(t, len(want), seen)
}
