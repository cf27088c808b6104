package store

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content digests. The version suffix leaves room for
// a future algorithm change.
const (
	domainSnapshot = "sseqchart/snapshot/v1"
	domainBatch    = "sseqchart/batch/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The null byte keeps
// the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotDigest returns the content digest of an encoded chart document.
// Canonical encoding makes equal charts produce equal digests.
func SnapshotDigest(doc []byte) string {
	return hashWithDomain(domainSnapshot, doc)
}

// BatchDigest returns the content digest of a marshaled batch.
func BatchDigest(messages []byte) string {
	return hashWithDomain(domainBatch, messages)
}
