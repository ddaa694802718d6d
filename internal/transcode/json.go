package transcode

import (
	"bytes"
	"encoding/json"
)

// CompileJSON parses raw and emits `module.exports = <pretty JSON>;`. The
// pretty-printing (and the private-key strip the scanner's file loader
// performs before this is called) goes through encoding/json rather than
// github.com/tidwall/gjson: gjson is a read/query library, not built for
// reconstructing re-serialized, deterministically-indented JSON, which is
// what spec §8.2's byte-exact round-trip property requires. See DESIGN.md.
func CompileJSON(raw []byte) (body string, data json.RawMessage, err error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", nil, err
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("module.exports = ")
	buf.Write(pretty)
	buf.WriteString(";\n")
	return buf.String(), json.RawMessage(pretty), nil
}

// StripPrivateKeys removes root-level object keys beginning with "_" (spec
// §4.5 step 5: "npm-private keys introduce nondeterminism").
func StripPrivateKeys(raw []byte) ([]byte, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		// Not a JSON object at the top level (array, scalar); nothing to strip.
		return raw, nil
	}
	for k := range obj {
		if len(k) > 0 && k[0] == '_' {
			delete(obj, k)
		}
	}
	return json.Marshal(obj)
}
