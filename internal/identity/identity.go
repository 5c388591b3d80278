package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Inputs are the semantic fields of one logical submission. Two submissions
// with the same inputs are still distinct logical submissions, so the derived
// key also carries a timestamp and a random component.
type Inputs struct {
	Email  string
	Amount float64
}

// New derives a fresh idempotency key for one logical submission.
// The caller must hold on to the returned key and reuse it verbatim for
// every retry attempt of that submission; generating a second key for a
// retry breaks deduplication on the server.
func New(in Inputs) string {
	digest := sha256.Sum256([]byte(fmt.Sprintf("%s|%.2f", in.Email, in.Amount)))
	return fmt.Sprintf("%s-%d-%s",
		hex.EncodeToString(digest[:4]),
		time.Now().UnixMilli(),
		uuid.NewString()[:8])
}
