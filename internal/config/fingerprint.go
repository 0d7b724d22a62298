// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// fingerprintKey is the BLAKE3 domain key for document fingerprints: the
// ASCII domain name zero-padded to 32 bytes. Changing it invalidates every
// recorded fingerprint.
var fingerprintKey = [32]byte{
	'n', 'm', 'r', 'c', 'f', 'g', '.', 'd', 'o', 'c', 'u', 'm', 'e', 'n', 't', '.',
	'v', '1', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Fingerprint returns the keyed BLAKE3-256 hex digest of the canonical YAML
// encoding of doc. Formatting and comments of the source file do not affect it.
func Fingerprint(doc *Document) (string, error) {
	data, err := Marshal(doc)
	if err != nil {
		return "", err
	}
	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	_, _ = hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
