// Package version provides build and version information for the Defusal
// Engine.
package version

// Version is the current release version of the Defusal Engine.
// This can be overridden at build time using:
//
//	go build -ldflags "-X github.com/AaronLay10/DefusalEngine/internal/version.Version=x.y.z"
var Version = "0.3.0"
