package badger

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/caselode/lexbase/storage"
)

// Key prefixes for different data types
const (
	entityPrefix = "knent"

	// keySep joins the levels of a hierarchical key. NUL never occurs
	// in tenant, category or item identifiers, so lexicographic
	// iteration over a partition prefix cannot leak into a sibling
	// partition with a longer identifier.
	keySep = "\x00"
)

// validateKeyParts rejects identifiers that would corrupt key encoding.
func validateKeyParts(parts ...string) error {
	for _, part := range parts {
		if strings.Contains(part, keySep) {
			return fmt.Errorf("%w: key part contains NUL", storage.ErrInvalid)
		}
	}
	return nil
}

// makeEntityKey encodes the full three-level key of an entity.
// Format: prefix \x00 tenant \x00 category \x00 item
func makeEntityKey(key storage.Key) []byte {
	return []byte(entityPrefix + keySep + key.TenantID + keySep + key.Category + keySep + key.ItemID)
}

// makePartitionPrefix encodes the prefix shared by all entities of one
// sub-partition. Format: prefix \x00 tenant \x00 category \x00
func makePartitionPrefix(partition storage.Partition) []byte {
	return []byte(entityPrefix + keySep + partition.TenantID + keySep + partition.Category + keySep)
}

// makeStorePrefix encodes the prefix shared by all entity keys.
func makeStorePrefix() []byte {
	return []byte(entityPrefix + keySep)
}

// itemIDFromKey recovers the third key level from an encoded entity key,
// given the partition prefix it was scanned under.
func itemIDFromKey(encoded, partitionPrefix []byte) string {
	return string(bytes.TrimPrefix(encoded, partitionPrefix))
}
