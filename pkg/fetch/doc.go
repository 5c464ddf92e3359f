// Package fetch geocodes a list of place names concurrently under a hard
// concurrency cap and aggregates the outcomes into a geo.ResultMap.
//
// Example usage:
//
//	c, _ := client.New(client.DefaultConfig(userAgent))
//	results := fetch.New(c, fetch.DefaultConfig()).FetchAll(ctx, cities)
//
// The orchestrator:
//   - Starts one goroutine per entity
//   - Gates every entity's retry sequence behind a permit (default 5)
//   - Releases the permit on every exit path, panics included
//   - Aggregates completions in the order they finish, not input order
//   - Never fails the run: every entity ends with exactly one outcome
//
// Duplicate names collapse into one entry, last completion wins. The
// collapse is logged and counted in Report.Duplicates but the input is
// not rejected.
package fetch
