package idhash

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// ContentHash returns a short deterministic hash of an ordered set of
// text lines, used as the compression-cache key. Any change to any line,
// or to the order of lines, produces a different key, which makes cache
// entries correct by construction.
func ContentHash(texts []string) string {
	sum := md5.Sum([]byte(strings.Join(texts, "\n")))
	return hex.EncodeToString(sum[:])[:12]
}
