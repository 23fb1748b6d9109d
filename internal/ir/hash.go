package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// DomainFingerprint separates collection fingerprints from any other hash.
const DomainFingerprint = "meshid/fingerprint/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint hashes the handle -> identifier assignment of a collection.
// Two collections have the same fingerprint exactly when every handle
// carries the same identifier in both.
func Fingerprint(ids map[Handle]Identifier) (string, error) {
	obj := make(map[string]string, len(ids))
	for h, id := range ids {
		obj[strconv.FormatUint(uint64(h), 10)] = id.String()
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainFingerprint, canonical), nil
}
