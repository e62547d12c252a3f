package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SnapshotKey derives a deterministic idempotency key from a selection
// snapshot. The same selection always yields the same key, so a repeated
// submit during the network round trip hits the duplicate guard instead of
// the contract backend.
func SnapshotKey(sessionID string, trimID, colorID int, dealerID string, offerID int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d|%s|%d", sessionID, trimID, colorID, dealerID, offerID))
	return hex.EncodeToString(sum[:])
}
