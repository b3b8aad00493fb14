package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// keyPrefix namespaces dashboard entries so the Redis database can be shared.
const keyPrefix = "fxdash:"

// Fingerprint derives a deterministic cache key from an endpoint name and its
// request parameters. Parameter order does not matter: the same logical
// request always maps to the same key.
func Fingerprint(endpoint string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(endpoint)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return keyPrefix + endpoint + ":" + hex.EncodeToString(sum[:8])
}
