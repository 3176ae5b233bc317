// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// AppBuildInfo is the build metadata of the running server, injected by
// linker flags and served by the version endpoint.
type AppBuildInfo struct {
	// Version is the configured application version.
	Version string `json:"version"`

	BuildVersion string `json:"buildVersion"`
	BuildDate    string `json:"buildDate"`
	BuildCommit  string `json:"buildCommit"`
}

const notAvailable = "N/A"

// NewAppBuildInfo constructs [AppBuildInfo] from linker-provided values.
// Empty values are reported as "N/A".
func NewAppBuildInfo(buildVersion, buildDate, buildCommit string) AppBuildInfo {
	return AppBuildInfo{
		BuildVersion: orNotAvailable(buildVersion),
		BuildDate:    orNotAvailable(buildDate),
		BuildCommit:  orNotAvailable(buildCommit),
	}
}

func orNotAvailable(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
