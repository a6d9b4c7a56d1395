package version

// Version is the current build version. Overridden at build time via
// -ldflags "-X flapboard/pkg/version.Version=...".
var Version = "0.2.0-dev"
