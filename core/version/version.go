// Package version reports tgenctl build information.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Version records tgenctl build information.
type Version struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit"`
	Date      time.Time `json:"date"`
	Dirty     bool      `json:"dirty"`
	GoVersion string    `json:"goVersion"`
}

func (v Version) String() string {
	return v.Version
}

// V contains tgenctl build information of the running executable.
var V = func() Version {
	bi, _ := debug.ReadBuildInfo()
	return fromBuildInfo(bi)
}()

// fromBuildInfo extracts Version from Go build information.
// A tagged module version takes precedence; otherwise a pseudo-version is derived from VCS stamping.
func fromBuildInfo(bi *debug.BuildInfo) (v Version) {
	v = Version{
		Version:   "development",
		Commit:    "unknown",
		Dirty:     true,
		GoVersion: runtime.Version(),
	}
	if bi == nil {
		return v
	}

	vcs := map[string]string{}
	for _, kv := range bi.Settings {
		vcs[kv.Key] = kv.Value
	}
	if vcs["vcs"] == "git" && len(vcs["vcs.revision"]) == 40 {
		v.Commit = vcs["vcs.revision"]
		v.Dirty = vcs["vcs.modified"] == "true"
		if dt, e := time.Parse(time.RFC3339, vcs["vcs.time"]); e == nil {
			v.Date = dt.UTC()
			suffix := ""
			if v.Dirty {
				suffix = "-dirty"
			}
			v.Version = fmt.Sprintf("v0.0.0-%s-%s%s", v.Date.Format("20060102150405"), v.Commit[:12], suffix)
		}
	}

	if mv := bi.Main.Version; mv != "" && mv != "(devel)" {
		v.Version = mv
	}
	return v
}
