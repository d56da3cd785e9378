package keygen

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// FromArgs derives a stable string key from an ordered argument list. Each
// argument is JSON-serialized (map keys are sorted by encoding/json, so
// structurally equal maps hash identically) and the concatenated stream is
// hashed with xxhash. Arguments that cannot be marshaled fall back to their
// Go-syntax rendering so a key is always produced.
func FromArgs(args ...any) string {
	h := xxhash.New()
	for i, arg := range args {
		if i > 0 {
			_, _ = h.Write([]byte{0x1f})
		}
		if b, err := json.Marshal(arg); err == nil {
			_, _ = h.Write(b)
		} else {
			_, _ = fmt.Fprintf(h, "%#v", arg)
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
