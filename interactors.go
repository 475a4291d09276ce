package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// autoKeyword asks for the station nearest to the current location.
const autoKeyword = "AUTO"

// Station identifiers are three or four letters or digits.
var stationCodeRegex = regexp.MustCompile(`^[A-Z0-9]{3,4}$`)

// stdinIsPiped reports whether input is being piped in (stdin)
func stdinIsPiped() bool {
	info, err := os.Stdin.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice == 0
}

// readFromStdin reads a raw report from stdin if one is piped in
func readFromStdin() (string, bool) {
	if !stdinIsPiped() {
		return "", false
	}
	return readReport(os.Stdin)
}

// readReport returns the first non-blank line of r.
func readReport(r io.Reader) (string, bool) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, true
		}
	}
	return "", false
}

// normalizeStationCode upper-cases and validates a station identifier
func normalizeStationCode(input string) (string, error) {
	stationCode := strings.ToUpper(strings.TrimSpace(input))
	if !stationCodeRegex.MatchString(stationCode) {
		return "", fmt.Errorf("invalid station code %q: must be 3 or 4 letters or digits", input)
	}
	return stationCode, nil
}

// getStationCodeFromArgs gets station code from command-line args
func getStationCodeFromArgs(args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("no station code provided")
	}
	return normalizeStationCode(args[0])
}

// promptForStationCode prompts the user for a station code. AUTO is passed
// through unchanged.
func promptForStationCode(in io.Reader, out io.Writer) (string, error) {
	reader := bufio.NewReader(in)
	fmt.Fprint(out, "Enter ICAO airport code (e.g., KJFK, EGLL) or AUTO: ")
	input, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || strings.TrimSpace(input) == "") {
		return "", fmt.Errorf("error reading input: %w", err)
	}

	if strings.EqualFold(strings.TrimSpace(input), autoKeyword) {
		return autoKeyword, nil
	}
	return normalizeStationCode(input)
}
