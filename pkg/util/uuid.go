package util

import (
	"encoding/json"

	"github.com/google/uuid"
)

// HashUUID derives a stable name based UUID from the JSON form of value,
// "" when value cannot be marshaled
func HashUUID(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return uuid.NewMD5(uuid.NameSpaceOID, raw).String()
}
