package value

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainFact  = "rulebook/fact/v1"
	DomainState = "rulebook/state/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the content-addressed identity of a fact.
// Equal facts produce equal fingerprints regardless of map insertion order.
func Fingerprint(v Value) (string, error) {
	return fingerprint(DomainFact, v)
}

// StateFingerprint returns the content-addressed identity of a state snapshot.
func StateFingerprint(m Map) (string, error) {
	return fingerprint(DomainState, m)
}

func fingerprint(domain string, v Value) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(domain, data), nil
}
