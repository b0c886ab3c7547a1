// Package compileinfo reports which build of a varmatrix tool is running.
package compileinfo

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime/debug"
)

type CompileInfo struct {
	Tool       string
	Module     string
	Version    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	if c.GoVersion == "" {
		return "No build information is available for this binary."
	}

	mod := ""
	if c.Modified {
		mod = " (modified)"
	}

	version := c.Version
	if version == "" || version == "(devel)" {
		version = "devel"
	}

	commit := c.Commit
	if commit == "" {
		commit = "unknown"
	} else if len(commit) > 12 {
		commit = commit[:12]
	}

	return fmt.Sprintf("%s %s from %s, commit %s%s %s, %s", c.Tool, version, c.Module, commit, mod, c.CommitTime, c.GoVersion)
}

// FromBuildInfo extracts what the banner needs from runtime build info.
func FromBuildInfo(z *debug.BuildInfo) CompileInfo {
	out := CompileInfo{}
	if z == nil {
		return out
	}

	out.GoVersion = z.GoVersion
	out.Tool = path.Base(z.Path)
	out.Module = z.Main.Path
	out.Version = z.Main.Version
	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

func Get() CompileInfo {
	z, ok := debug.ReadBuildInfo()
	if !ok {
		return CompileInfo{}
	}

	return FromBuildInfo(z)
}

// Fprint writes the banner for the running binary to w.
func Fprint(w io.Writer) {
	fmt.Fprintln(w, Get())
}

func PrintToStdErr() {
	Fprint(os.Stderr)
}
