package rpg

import (
	"crypto/rand"
	"sync"

	"github.com/oklog/ulid/v2"
)

// idEntropy is a single monotonic entropy source shared across id
// generation so ids sort lexically in creation order within a run.
var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewID mints a globally-unique, time-sortable node or edge id prefixed
// by kind (e.g. "capability", "file") so ids stay human-legible in logs
// and JSON dumps.
func NewID(prefix string) string {
	idMu.Lock()
	id := ulid.MustNew(ulid.Now(), idEntropy)
	idMu.Unlock()
	if prefix == "" {
		return id.String()
	}
	return prefix + "_" + id.String()
}
