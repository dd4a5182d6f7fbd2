package buildversion

import "runtime/debug"

// GetVersion returns the version of modulePath that was compiled into the
// running binary, or "unknown" when the build carries no module information.
func GetVersion(modulePath string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	if info.Main.Path == modulePath {
		return versionOrDevel(info.Main.Version)
	}

	for _, dep := range info.Deps {
		if dep.Path != modulePath {
			continue
		}
		if dep.Replace != nil {
			return versionOrDevel(dep.Replace.Version)
		}
		return versionOrDevel(dep.Version)
	}

	return "unknown"
}

func versionOrDevel(version string) string {
	if version == "" {
		return "(devel)"
	}
	return version
}
