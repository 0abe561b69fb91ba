package toolchain

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/crucible-build/crucible/util"
)

const (
	sipHashKey0 = 42
	sipHashKey1 = 1729
)

// cosmeticFlags and cosmeticFlagPrefix list arguments that do not
// affect a toolchain's ABI and so are pruned before hashing. Grounded
// verbatim on prep.cpp's should_prune_flag.
var cosmeticFlags = map[string]bool{
	"-fdiagnostics-color": true,
	"/nologo":             true,
}

const cosmeticFlagPrefix = "-fconcept-diagnostics-depth="

func shouldPruneFlag(flag string) bool {
	if cosmeticFlags[flag] {
		return true
	}
	return strings.HasPrefix(flag, cosmeticFlagPrefix)
}

func pruneFlags(flags []string) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		if !shouldPruneFlag(f) {
			out = append(out, f)
		}
	}
	return out
}

// abiDocument is the canonical JSON document hashed for the ABI
// fingerprint. Field order matches prep.cpp's nlohmann::json object,
// which sorts keys alphabetically ("c_compile" < "cxx_compile" <
// "env") — Go's struct-declaration-order marshaling reproduces the
// same byte sequence because these tag names already sort that way.
type abiDocument struct {
	CCompile   []string          `json:"c_compile"`
	CxxCompile []string          `json:"cxx_compile"`
	Env        map[string]string `json:"env"`
}

func computeHash(prep Prep, env map[string]string) uint64 {
	doc := abiDocument{
		CCompile:   nonNil(pruneFlags(prep.CCompile)),
		CxxCompile: nonNil(pruneFlags(prep.CxxCompile)),
		Env:        nonNilMap(env),
	}

	// encoding/json sorts map keys alphabetically already, matching
	// nlohmann::json's default std::map-backed object ordering.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		panic("toolchain: encoding ABI document: " + err.Error())
	}
	// json.Encoder.Encode appends a trailing newline; the reference
	// implementation's json::dump() does not emit one.
	raw := bytes.TrimRight(buf.Bytes(), "\n")

	return util.SipHash64(sipHashKey0, sipHashKey1, raw)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// sortedEnvNames is exposed for callers that want a deterministic
// listing of a toolchain's ABI-relevant environment variables (e.g.
// diagnostic output explaining a hash change).
func sortedEnvNames(env map[string]string) []string {
	names := make([]string, 0, len(env))
	for k := range env {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
