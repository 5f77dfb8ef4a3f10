// Package app is the composition root of the storefront.
//
// # Startup
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()        File, then STOREFRONT_* env
//	       ├─────> telemetry.Setup()    OTLP export when an endpoint is set
//	       ├─────> mall.NewClient()     HTTP client with transport retry
//	       ├─────> prefs.OpenScalars()  Durable scalars and theme
//	       ├─────> dispatch.New()       Intents over a state.Store
//	       ├─────> Boot()               Hydrate, then vip/params/banners
//	       ├─────> StartPoller()        Background refresh
//	       └─────> ui.Run()             Bubble Tea program (blocks)
//
// A failed Boot is not fatal. The UI starts with whatever was hydrated from
// local storage and shows the recorded error.
//
// # Polling
//
// The poller refreshes system parameters and the vip level every PollEvery
// (default 30s). Each consecutive failure doubles the wait up to five
// minutes; the first success returns to the base interval.
//
// # Logging
//
// Logs are JSON lines written with log/slog to
// <user cache dir>/storefront/storefront.log, since the terminal is owned by
// the UI.
package app
