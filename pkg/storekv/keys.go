package storekv

import "encoding/binary"

// Key prefixes for the single shared key space.
const (
	NodePrefix = "n:"
	EdgePrefix = "e:"
	MetaPrefix = "m:"
)

// Well-known metadata keys under MetaPrefix.
const (
	MetaNextNodeID    = MetaPrefix + "next-node-id"
	MetaNextEdgeID    = MetaPrefix + "next-edge-id"
	MetaSchemaVersion = MetaPrefix + "schema-version"
)

// encodeID renders id as 8-byte big-endian so that lexicographic byte
// ordering equals numeric ordering; this is what lets ScanPrefix("n:")
// yield nodes in ascending-id order without a secondary sort.
func encodeID(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

func decodeID(buf []byte) uint64 {
	return binary.BigEndian.Uint64(buf)
}

// NodeKey returns the storage key for a node id.
func NodeKey(id uint64) []byte {
	return append([]byte(NodePrefix), encodeID(id)...)
}

// EdgeKey returns the storage key for an edge id.
func EdgeKey(id uint64) []byte {
	return append([]byte(EdgePrefix), encodeID(id)...)
}

// NodeIDFromKey extracts the id from a key produced by NodeKey.
func NodeIDFromKey(key []byte) uint64 {
	return decodeID(key[len(NodePrefix):])
}

// EdgeIDFromKey extracts the id from a key produced by EdgeKey.
func EdgeIDFromKey(key []byte) uint64 {
	return decodeID(key[len(EdgePrefix):])
}
