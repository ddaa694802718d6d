package resolver

// nodeBuiltins is the set of Node.js core built-in module ids. Kept as a
// plain set since callers only need membership plus a stub name; there's
// no package.json or registry metadata backing this list, just Node's own
// fixed core-module names.
var nodeBuiltins = map[string]bool{
	"assert": true, "buffer": true, "child_process": true, "cluster": true,
	"crypto": true, "dgram": true, "dns": true, "domain": true, "events": true,
	"fs": true, "http": true, "https": true, "net": true, "os": true,
	"path": true, "punycode": true, "querystring": true, "readline": true,
	"stream": true, "string_decoder": true, "tls": true, "tty": true,
	"url": true, "util": true, "v8": true, "vm": true, "zlib": true,
}

// IsNative reports whether id is a Node built-in module.
func IsNative(id string) bool {
	return nodeBuiltins[id]
}

// GetNativeStubId returns the bare specifier of the browser stub package
// that substitutes for a native module on web arches.
func GetNativeStubId(id string) string {
	return "meteor-node-stubs/deps/" + id + ".js"
}
