// Package core provides the search logic for the companion-diagnostic table.
//
// This package sits between the dataset loader and any transport. It can be
// used by the HTTP server, the command-line tool, or tests without
// modification.
//
// # Searching
//
// [Service.Search] loads the table through its [TableSource] on every call
// and hands it to [Filter]:
//
//	svc, _ := core.NewService(loader)
//	res, err := svc.Search(ctx, core.SearchRequest{
//	    core.KeyTumorType:     "lung",
//	    core.KeyGeneMutations: "NTRK",
//	})
//
// Each term is tested against its own column, case-insensitively, and a row
// must satisfy every term. See matcher.go for the full rules.
//
// # Columns
//
// [BaseColumns] are required on every row; rows lacking one are skipped
// rather than reported. [OptionalColumns] appear in a result only when some
// matching row carries them.
//
// # Error Handling
//
// Load failures are returned unchanged and mapped for display with
// [MapError]:
//
//   - SRC001-SRC002: dataset source and parse failures
//   - REQ001-REQ003: malformed, timed out, or cancelled requests
//   - RATE001-RATE002: rate limiting and a saturated [SearchLimiter]
//
// # Concurrency
//
// Every search reads the source afresh. [WithLimiter] installs a
// [SearchLimiter] that caps how many run at once.
package core
