// Package version holds build metadata set through -ldflags.
package version

// Version is the application version, overridden at build time with
// -ldflags "-X github.com/ndewijer/pnl-tracker/internal/version.Version=1.2.3".
var Version = "dev"
