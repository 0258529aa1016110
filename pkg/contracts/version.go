package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the release version of both binaries
	Version = "1.0.0"

	// APIVersion is the version of the HTTP contracts in api/v1
	APIVersion = "v1"
)

// Stamped by build.go through -ldflags "-X".
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	BuildTime  string `json:"build_time"`
	GitCommit  string `json:"git_commit"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// GetVersionInfo returns the version of the running binary
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:    Version,
		APIVersion: APIVersion,
		BuildTime:  BuildTime,
		GitCommit:  GitCommit,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String formats v for -version output
func (v VersionInfo) String() string {
	return fmt.Sprintf("Specialization Report Cleaner v%s (api %s, commit %s, built %s, %s %s)",
		v.Version, v.APIVersion, v.GitCommit, v.BuildTime, v.GoVersion, v.Platform)
}
