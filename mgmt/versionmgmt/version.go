// Package versionmgmt provides version information in the management API.
package versionmgmt

import (
	"github.com/usnistgov/tgenctl/core/version"
)

// VersionMgmt serves the Version.* methods.
type VersionMgmt struct{}

// Version returns version information.
func (VersionMgmt) Version(args struct{}, reply *version.Version) error {
	*reply = version.V
	return nil
}
