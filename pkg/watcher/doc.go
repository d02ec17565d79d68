package watcher

// Reconfigure's concurrency contract: a call acquires tickMu before
// touching the watch list, so it always waits for an in-progress debounce
// flush (updateJustfile/removeJustfileTools for the pending batch) to
// finish first. This means _admin_set_watch_directory never observes, and
// never produces, a registry update interleaved with a live root swap: the
// flush either completed before Reconfigure started, or Reconfigure's own
// re-scan happens after it, never both at once.
