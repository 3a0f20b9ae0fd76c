package brisk

import (
	"os"
	"path/filepath"
	"strings"
)

// headerSearchDirs are the conventional system include directories
// probed in order for a header name that is not an absolute path;
// headers are not looked up relative to the script.
var headerSearchDirs = []string{
	"/usr/include",
	"/usr/local/include",
	"/usr/include/x86_64-linux-gnu",
}

var raylibCandidates = []string{
	"/usr/local/lib/libraylib.so",
	"/usr/lib/libraylib.so",
	"/usr/lib/x86_64-linux-gnu/libraylib.so",
	"libraylib.so",
}

// findHeaderFile probes the search directories for name, returning the
// first match.
func findHeaderFile(name string) (string, bool) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err == nil {
			return name, true
		}
		return "", false
	}
	for _, dir := range headerSearchDirs {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// resolveLibraryFor implements the two ad-hoc special cases baked into
// §4.5's library-selection rule: math.h additionally loads libm, and
// raylib headers additionally probe a hardcoded candidate list. Every
// other header resolves against the default process-wide handle, which
// already exposes the C runtime.
func (ip *Interpreter) resolveLibraryFor(headerName string) (*dynLib, error) {
	def, err := ip.defaultLibrary()
	if err != nil {
		return nil, err
	}
	switch {
	case strings.Contains(headerName, "math.h"):
		if lib, err := ip.namedLibrary("libm.so.6"); err == nil {
			return lib, nil
		}
		if lib, err := ip.namedLibrary("libm.so"); err == nil {
			return lib, nil
		}
		return def, nil
	case strings.Contains(headerName, "raylib"):
		for _, cand := range raylibCandidates {
			if lib, err := ip.namedLibrary(cand); err == nil {
				return lib, nil
			}
		}
		return def, nil
	default:
		return def, nil
	}
}

func (ip *Interpreter) defaultLibrary() (*dynLib, error) {
	if ip.defaultLib == nil {
		lib, err := openLibrary("")
		if err != nil {
			return nil, err
		}
		ip.defaultLib = lib
	}
	return ip.defaultLib, nil
}

func (ip *Interpreter) namedLibrary(path string) (*dynLib, error) {
	if lib, ok := ip.libs[path]; ok {
		return lib, nil
	}
	lib, err := openLibrary(path)
	if err != nil {
		return nil, err
	}
	ip.libs[path] = lib
	return lib, nil
}

// hardcodedMathFunctions is injected by symbol lookup even when the
// header parser failed to extract a prototype, because many libm
// entry points are declared via macros in glibc's math.h rather than
// plain prototypes (§4.5).
var hardcodedMathFunctions = map[string][]CType{
	"sin": {CDouble}, "cos": {CDouble}, "tan": {CDouble},
	"asin": {CDouble}, "acos": {CDouble}, "atan": {CDouble},
	"exp": {CDouble}, "log": {CDouble}, "log2": {CDouble}, "log10": {CDouble},
	"sqrt": {CDouble}, "cbrt": {CDouble}, "fabs": {CDouble}, "ceil": {CDouble},
	"floor": {CDouble}, "round": {CDouble}, "trunc": {CDouble},
	"atan2": {CDouble, CDouble}, "pow": {CDouble, CDouble}, "fmod": {CDouble, CDouble},
	"hypot": {CDouble, CDouble},
}
