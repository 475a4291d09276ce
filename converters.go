package main

// CelsiusToFahrenheit converts temperature from Celsius to Fahrenheit
func CelsiusToFahrenheit(celsius float64) float64 {
	return celsius*9/5 + 32
}

// InHgToMillibars converts pressure from inches of mercury to millibars (hPa)
func InHgToMillibars(inHg float64) float64 {
	return inHg * 33.8639
}

// FeetToMeters converts a height in feet to meters
func FeetToMeters(feet float64) float64 {
	return feet * 0.3048
}

// MilesToKilometers converts statute miles to kilometers
func MilesToKilometers(miles float64) float64 {
	return miles * 1.609344
}
