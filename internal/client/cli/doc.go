// Package cli implements the filesender command-line interface.
//
// The binary exposes one subcommand per workflow:
//
//	filesender upload -to a@example.com,b@example.com [-subject s] [-message m] path...
//	filesender upload-voucher -voucher TOKEN path...
//	filesender invite -to guest@example.com [-subject s] [-message m]
//	filesender download -token TOKEN [-out dir]
//	filesender server-info
//
// Global configuration (base URL, credentials, chunk size, concurrency) is
// resolved by the config package before the subcommand runs; each subcommand
// only parses its own flags. When a username is configured but no API key,
// the key is prompted for without echo.
package cli
