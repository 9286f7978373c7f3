package version

import (
	"fmt"
	"runtime"
)

// Version represents the current version of dndbg.
type Version struct {
	Major    string
	Minor    string
	Patch    string
	Metadata string
	Build    string
}

// DndbgVersion is the current version of the dndbg engine.
var DndbgVersion = Version{
	Major: "0", Minor: "2", Patch: "0", Metadata: "",
	Build: "$Id$",
}

func (v Version) String() string {
	fixBuild(&v)
	ver := fmt.Sprintf("Version: %s.%s.%s", v.Major, v.Minor, v.Patch)
	if v.Metadata != "" {
		ver += "-" + v.Metadata
	}
	return fmt.Sprintf("%s\nBuild: %s", ver, v.Build)
}

func buildInfoString(v *Version) string {
	fixBuild(v)
	return fmt.Sprintf("%s\n%s", v.String(), runtime.Version())
}

// BuildInfo returns a string describing the build of this binary.
func BuildInfo() string {
	return buildInfoString(&DndbgVersion)
}

func fixBuild(v *Version) {
	// Returned when the binary is built outside of version control.
	if v.Build == "$Id$" {
		v.Build = "(devel)"
	}
}
