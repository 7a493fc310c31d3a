// Package memory keeps decoded-image memory inside a budget.
//
// [ConfigureFromEnv] sets GOMEMLIMIT from a memory budget
// (PHOTOCULL_MEMORY_LIMIT or MEMORY_LIMIT) unless GOMEMLIMIT is already
// set. Call it first thing in main.
//
// A [Monitor] samples the heap against that limit. Above the high water
// mark ShouldThrottle reports true and the preload worker stretches the
// pause between decodes; above the critical mark the worker blocks in
// Wait until usage falls back under the high mark. Without a limit the
// monitor never signals.
package memory
