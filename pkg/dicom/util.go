package dicom

import (
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// UUIDRoot is the DICOM root under which a UUID may be written as a UID (PS3.5 B.2)
const UUIDRoot = "2.25."

// GenerateUID generates a DICOM unique identifier (UID).
// Without a prefix the UID is derived from a random UUID under the 2.25 root,
// otherwise the UUID's decimal form is appended to the prefix and cut to 64 characters.
func GenerateUID(prefix string) string {
	return UIDFromUUID(prefix, uuid.New())
}

// UIDFromUUID writes a UUID as the decimal integer of its 128 bits beneath a root
func UIDFromUUID(prefix string, id uuid.UUID) string {
	if prefix == "" {
		prefix = UUIDRoot
	}
	if !strings.HasSuffix(prefix, ".") {
		prefix += "."
	}
	n := new(big.Int).SetBytes(id[:])
	uid := prefix + n.String()
	if len(uid) > 64 {
		uid = uid[:64]
	}
	return uid
}

// UUIDFromUID reverses UIDFromUUID for UIDs under the 2.25 root
func UUIDFromUID(uid string) (uuid.UUID, bool) {
	digits, ok := strings.CutPrefix(strings.TrimSpace(uid), UUIDRoot)
	if !ok || digits == "" {
		return uuid.Nil, false
	}
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok || n.Sign() < 0 || n.BitLen() > 128 {
		return uuid.Nil, false
	}
	var id uuid.UUID
	n.FillBytes(id[:])
	return id, true
}
