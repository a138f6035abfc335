package profile

import (
	"os"
	"path/filepath"
)

// LoadNamed resolves a Profile: command's argument to a file under dir and
// parses it. A bare name without an extension is treated as
// "<name>.sccprofile"; an absolute or relative path containing a separator
// is used as-is. Profiles are deliberately re-read from disk on every call
// instead of cached: profile files are small and rarely switched under load.
func LoadNamed(dir, nameOrPath string) (Profile, error) {
	path := nameOrPath
	if !filepath.IsAbs(path) && filepath.Base(path) == path && filepath.Ext(path) == "" {
		path = filepath.Join(dir, path+".sccprofile")
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
