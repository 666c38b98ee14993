package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for canonical keys.
// Version suffix allows changing the key layout without collisions.
const (
	DomainQuery   = "qrelax/query/v1"
	DomainBinding = "qrelax/binding/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalKey hashes the canonical JSON form of v under domain.
func CanonicalKey(domain string, v any) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("canonical key %s: %w", domain, err)
	}
	return hashWithDomain(domain, data), nil
}

// termValue is the canonical representation of a term inside keys.
func termValue(t Term) map[string]any {
	m := map[string]any{
		"kind":  int(t.Kind),
		"value": t.Value,
	}
	if t.Datatype != "" {
		m["datatype"] = t.Datatype
	}
	if t.Lang != "" {
		m["lang"] = t.Lang
	}
	return m
}

// BindingKey computes the deduplication key of one result row.
func BindingKey(row map[string]Term) string {
	obj := make(map[string]any, len(row))
	for name, t := range row {
		obj[name] = termValue(t)
	}
	// Only strings, ints and maps are involved, so marshaling cannot fail.
	key, err := CanonicalKey(DomainBinding, obj)
	if err != nil {
		panic(err)
	}
	return key
}
