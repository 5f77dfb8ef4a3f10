// Package dispatch turns storefront intents into state transitions.
//
// Every load intent follows the same path:
//
//	backend fetch → pure reducer → store.Update
//
// A failed fetch leaves the snapshot data as it was and records the error on
// the snapshot (LastError, ConsecutiveFailures); the intent returns a
// *FetchFailure. The dispatcher never retries; transport retries live in the
// mall client.
//
// System parameters go through store.TryUpdate so a malformed payload can be
// rejected without a commit. The reducer returns persist effects which run
// only after the commit; a failed persist is logged and returned but the
// committed state stays.
//
// Cart writes are optimistic. The local commit happens first and the remote
// mirror follows; a remote failure is reported but not rolled back.
//
// Each fetch runs inside an OpenTelemetry span named "dispatch.<op>".
package dispatch
