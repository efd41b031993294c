package ids

import (
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	prefijoTransferencia = "TRF-"
	prefijoAnulacion     = "VOID-"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

func nuevo(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Nuevo returns a bare ULID, used for event ids.
func Nuevo() string {
	return nuevo(time.Now())
}

// Transferencia returns a fresh transfer correlation id. ULIDs sort by
// creation time, so ids listed in order read chronologically.
func Transferencia() string {
	return prefijoTransferencia + nuevo(time.Now())
}

// Anulacion is the id of the compensating transfer that voids original.
func Anulacion(original string) string {
	return prefijoAnulacion + original
}

// EsAnulacion reports whether id belongs to a compensating transfer.
func EsAnulacion(id string) bool {
	return strings.HasPrefix(id, prefijoAnulacion)
}
