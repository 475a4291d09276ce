package fetch

import "context"

// Result is the outcome of an asynchronous fetch.
type Result struct {
	StationID string
	Raw       string
	Err       error
}

// Async runs f.FetchMETAR in a goroutine. The returned channel receives
// exactly one Result and is then closed.
func Async(ctx context.Context, f Fetcher, stationID string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		raw, err := f.FetchMETAR(ctx, stationID)
		ch <- Result{StationID: stationID, Raw: raw, Err: err}
	}()
	return ch
}
