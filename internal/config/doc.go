// Package config loads the storefront configuration.
//
// # Resolution Order
//
//  1. Defaults
//  2. The TOML file (explicit path, or ~/.config/storefront/config.toml)
//  3. STOREFRONT_* environment variables
//
// A missing config file is not an error; the defaults are enough to start
// against the public mall API.
//
// # Default Values
//
//   - Config file: ~/.config/storefront/config.toml
//   - API base: https://api.it120.cc
//   - Prefs file: ~/.config/storefront/prefs.toml
//   - Poll interval: 30s
//
// # TOML Format
//
//	api_base = "https://api.it120.cc"
//	sub_domain = "tz"
//	prefs_path = "~/.config/storefront/prefs.toml"
//	poll_seconds = 30
//	region_exclusions = ["香港特别行政区", "澳门特别行政区", "台湾省"]
//	otel_endpoint = "http://localhost:4318"
//
// All fields are optional. Paths get tilde expansion. An explicit empty
// region_exclusions list disables filtering; omitting it keeps the region
// package defaults.
//
// # Environment
//
//   - STOREFRONT_API_BASE
//   - STOREFRONT_SUB_DOMAIN
//   - STOREFRONT_PREFS_PATH
//   - STOREFRONT_OTEL_ENDPOINT
//   - STOREFRONT_POLL_SECONDS
//
// Empty variables are ignored. A non-numeric poll value is an error.
package config
