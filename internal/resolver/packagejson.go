package resolver

import (
	"github.com/tidwall/gjson"
)

// PackageJSON is the subset of a package.json manifest the resolver cares
// about. Field reads go through github.com/tidwall/gjson (as used
// throughout bennypowers.dev/cem) rather than a full encoding/json
// unmarshal, since the resolver only ever needs a handful of top-level
// fields and gjson avoids allocating a struct for fields we discard.
type PackageJSON struct {
	AbsPath string
	Dir     string

	Main string // relative path from the "main" field, if present

	// BrowserMain is set when "browser" is a bare string: it replaces Main
	// on browser arches.
	BrowserMain string

	// BrowserPackageMap remaps an entire bare package specifier. A nil
	// value means the package is disabled (browser field set to `false`).
	BrowserPackageMap map[string]*string

	// BrowserNonPackageMap remaps one relative-path key (resolved from the
	// package root, same as the map's string values) to another; a nil
	// value disables the target outright.
	BrowserNonPackageMap map[string]*string
}

// ParsePackageJSON reads and interprets a package.json. platformBrowser
// gates whether the "browser" field is honored at all (spec §4.2: "Read
// the browser field, but only when targeting the browser").
func ParsePackageJSON(raw []byte, absPath string, dir string, platformBrowser bool) *PackageJSON {
	pkg := &PackageJSON{AbsPath: absPath, Dir: dir}

	if main := gjson.GetBytes(raw, "main"); main.Exists() && main.Type == gjson.String {
		pkg.Main = main.String()
	}

	if !platformBrowser {
		return pkg
	}

	browser := gjson.GetBytes(raw, "browser")
	if !browser.Exists() {
		return pkg
	}

	if browser.Type == gjson.String {
		pkg.BrowserMain = browser.String()
		return pkg
	}

	if browser.IsObject() {
		pkg.BrowserPackageMap = map[string]*string{}
		pkg.BrowserNonPackageMap = map[string]*string{}
		browser.ForEach(func(key, value gjson.Result) bool {
			k := key.String()
			isPackagePath := IsPackagePath(k)

			target := map[string]*string(nil)
			if isPackagePath {
				target = pkg.BrowserPackageMap
			} else {
				target = pkg.BrowserNonPackageMap
			}

			switch value.Type {
			case gjson.String:
				v := value.String()
				target[k] = &v
			case gjson.False:
				target[k] = nil
			}
			return true
		})
	}

	return pkg
}

// IsPackagePath reports whether specifier names a package (bare, possibly
// scoped) rather than a relative or absolute path.
func IsPackagePath(specifier string) bool {
	if specifier == "" {
		return false
	}
	if specifier[0] == '.' || specifier[0] == '/' {
		return false
	}
	return true
}
