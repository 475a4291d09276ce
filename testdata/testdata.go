package testdata

import (
	"bufio"
	"embed"
	"testing"

	"github.com/stretchr/testify/require"
)

//go:embed *.txt *.csv
var data embed.FS

func newScanner(t *testing.T, path string) *bufio.Scanner {
	f, err := data.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, f.Close())
	})

	scanner := bufio.NewScanner(f)
	t.Cleanup(func() {
		require.NoError(t, scanner.Err())
	})

	return scanner
}

// METAR returns a scanner over one raw report per line.
func METAR(t *testing.T) *bufio.Scanner {
	return newScanner(t, "metar.txt")
}

// Airports returns the sample station directory source, header included.
func Airports(t *testing.T) string {
	b, err := data.ReadFile("airports.csv")
	require.NoError(t, err)
	return string(b)
}
