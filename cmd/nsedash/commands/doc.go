// Package commands defines the nsedash CLI.
//
// Commands
//
//   - last-date         Show the newest report held by the backend
//   - download          Select trading days and submit them for download
//   - sectors           Sector gainers and losers for a day
//   - sectors volume    Sector volume ratios over a date range
//   - stocks            Nifty 50 gainers and losers for a day
//   - stocks volume     Stock volume differences between two days
//   - bhavcopy          Browse the end-of-day price table
//   - serve             Run the HTTP API and download progress websocket
//
// # Implementation
//
// The root command loads .env and config.yaml, sets up logging and tracing,
// and builds one dashboard session (backend client, selection, download
// tracker, journal) before any subcommand runs.
package commands
