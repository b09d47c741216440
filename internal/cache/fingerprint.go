package cache

import (
	"fmt"
	"io"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/akarpova/vacancyhub/pkg/upstream"
)

// Fingerprint derives the canonical cache key for one request: provider id,
// endpoint, and the parameters serialized in sorted key order with nil values
// excluded. Two logically identical requests always hash the same regardless
// of parameter insertion order.
func Fingerprint(provider, endpoint string, params upstream.Params) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := xxhash.New()
	_, _ = io.WriteString(h, provider)
	_, _ = io.WriteString(h, "\x00")
	_, _ = io.WriteString(h, endpoint)
	for _, k := range keys {
		_, _ = io.WriteString(h, "\x00")
		_, _ = io.WriteString(h, k)
		_, _ = io.WriteString(h, "=")
		_, _ = io.WriteString(h, fmt.Sprint(params[k]))
	}

	return fmt.Sprintf("%016x", h.Sum64())
}
