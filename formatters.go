package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/rmitchellscott/nimbus/internal/briefing"
	"github.com/rmitchellscott/nimbus/metar"
)

// Color definitions using fatih/color
var (
	labelColor    = color.New(color.FgCyan)
	distanceColor = color.New(color.FgGreen)
	functionColor = color.New(color.FgMagenta)
	warningColor  = color.New(color.FgYellow)

	// Flight category colors
	vfrColor  = color.New(color.FgGreen, color.Bold)
	mvfrColor = color.New(color.FgBlue, color.Bold)
	ifrColor  = color.New(color.FgRed, color.Bold)
	lifrColor = color.New(color.FgMagenta, color.Bold)
)

// categoryColor returns the conventional chart color for a flight category
func categoryColor(c metar.Category) *color.Color {
	switch c {
	case metar.MVFR:
		return mvfrColor
	case metar.IFR:
		return ifrColor
	case metar.LIFR:
		return lifrColor
	default:
		return vfrColor
	}
}

// formatWind converts decoded wind to a human-readable string
func formatWind(c metar.Conditions) string {
	if c.WindSpeed == 0 && (c.WindDirection == nil || *c.WindDirection == 0) {
		return "Calm"
	}

	windStr := "Variable"
	if c.WindDirection != nil {
		windStr = fmt.Sprintf("From %03d°", *c.WindDirection)
	}

	if c.WindSpeed > 0 {
		windStr += fmt.Sprintf(" at %d knots", c.WindSpeed)
	}

	return windStr
}

// formatVisibility converts visibility in statute miles to a human-readable string
func formatVisibility(sm float64) string {
	unit := "statute miles"
	if sm == 1 {
		unit = "statute mile"
	}
	return strconv.FormatFloat(sm, 'f', -1, 64) + " " + unit
}

// formatCeiling converts the ceiling height to a human-readable string
func formatCeiling(c metar.Conditions) string {
	if c.CeilingUnlimited() {
		return "Unlimited"
	}
	return fmt.Sprintf("%s feet | %s m",
		formatNumberWithCommas(int(math.Round(c.Ceiling))),
		formatNumberWithCommas(int(math.Round(FeetToMeters(c.Ceiling)))))
}

// formatMagneticVariation renders declination as degrees east or west
func formatMagneticVariation(deg float64) string {
	hemisphere := "E"
	if deg < 0 {
		hemisphere = "W"
	}
	return fmt.Sprintf("%.1f°%s", math.Abs(deg), hemisphere)
}

// FormatConditions formats decoded conditions for display with colors
func FormatConditions(c metar.Conditions) string {
	var sb strings.Builder

	// Wind
	labelColor.Fprint(&sb, "Wind: ")
	sb.WriteString(formatWind(c) + "\n")

	// Visibility
	labelColor.Fprint(&sb, "Visibility: ")
	sb.WriteString(formatVisibility(c.Visibility) + "\n")

	// Ceiling
	labelColor.Fprint(&sb, "Ceiling: ")
	sb.WriteString(formatCeiling(c) + "\n")

	// Temperature with Fahrenheit conversion
	labelColor.Fprint(&sb, "Temperature: ")
	sb.WriteString(fmt.Sprintf("%.0f°C | %.0f°F\n", c.Temperature, CelsiusToFahrenheit(c.Temperature)))

	// Pressure with conversion to hPa
	labelColor.Fprint(&sb, "Pressure: ")
	sb.WriteString(fmt.Sprintf("%.2f inHg | %.1f hPa\n", c.Altimeter, InHgToMillibars(c.Altimeter)))

	// Flight category
	labelColor.Fprint(&sb, "Flight Category: ")
	categoryColor(c.Category).Fprint(&sb, c.Category.String())
	sb.WriteString("\n")

	return sb.String()
}

// formatStation describes the briefed station
func formatStation(b briefing.Briefing) string {
	var sb strings.Builder

	labelColor.Fprint(&sb, "Station: ")
	sb.WriteString(b.Station.ID)
	switch {
	case b.Manual:
		warningColor.Fprint(&sb, " (not in station directory)")
	case b.Station.Name != "" && b.Station.Name != b.Station.ID:
		sb.WriteString(" (" + b.Station.Name + ")")
	}
	sb.WriteString("\n")

	if b.DistanceMiles > 0 {
		labelColor.Fprint(&sb, "Distance: ")
		distanceColor.Fprintf(&sb, "%.1f miles", b.DistanceMiles)
		sb.WriteString(fmt.Sprintf(" | %.1f km\n", MilesToKilometers(b.DistanceMiles)))
	}

	if b.MagneticVariation != nil {
		labelColor.Fprint(&sb, "Magnetic Variation: ")
		sb.WriteString(formatMagneticVariation(*b.MagneticVariation) + "\n")
	}

	return sb.String()
}

// FormatBriefing formats a station briefing, optionally preceded by the raw report
func FormatBriefing(b briefing.Briefing, noRaw bool) string {
	var sb strings.Builder

	if !noRaw {
		functionColor.Fprintln(&sb, "----- Raw METAR -----")
		sb.WriteString(b.Conditions.Raw + "\n\n")
	}

	functionColor.Fprintln(&sb, "--- Decoded METAR ---")
	sb.WriteString(formatStation(b))
	sb.WriteString(FormatConditions(b.Conditions))

	return sb.String()
}

// formatNumberWithCommas adds thousands separators to a number
func formatNumberWithCommas(n int) string {
	if n < 0 {
		return "-" + formatNumberWithCommas(-n)
	}

	numStr := strconv.Itoa(n)

	var sb strings.Builder
	for i, c := range numStr {
		if i > 0 && (len(numStr)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}

	return sb.String()
}
