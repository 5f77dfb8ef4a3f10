// Package ui is the Bubble Tea terminal front end of the storefront.
//
// The UI never mutates state itself. Key presses become dispatcher intents;
// the store publishes every commit through Subscribe and Run forwards each
// snapshot into the program as a message. Snapshots can arrive out of order,
// so older versions are dropped.
//
// # Views
//
//   - Home: banners, categories and the recommended and full product lists;
//     c adds the selected product to the cart
//   - Cart: lines with checkboxes, quantities and the derived totals
//   - Regions: provinces bucketed by first letter; enter drills into cities
//     and districts, esc goes back up
//   - Orders: order list per status, cycled with f
//
// Remote intents run as tea.Cmds. Their failures show in the footer until the
// next successful intent; the header reports DEGRADED after one failed fetch
// and OFFLINE after two in a row.
//
// Prices are formatted with golang.org/x/text/message so amounts get digit
// grouping.
package ui
