// Package vericode mints and checks the single-use delivery-confirmation
// codes printed on product packaging. A code is base58 text carrying a
// random payload plus a truncated SHA-256 checksum, so a scanner can tell a
// corrupted or altered code (checksum mismatch) apart from a code the
// platform simply never issued.
package vericode

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/google/uuid"
)

const (
	payloadLen  = 8
	checksumLen = 4
)

var (
	// ErrMalformed means the text is not a code this platform could have
	// printed (wrong alphabet or length). Presents as counterfeit.
	ErrMalformed = errors.New("vericode: malformed code")
	// ErrChecksum means the code decodes but its embedded checksum does not
	// match: the printed code was altered.
	ErrChecksum = errors.New("vericode: checksum mismatch")
)

// Mint generates a fresh code.
func Mint() (string, error) {
	payload := make([]byte, payloadLen)
	if _, err := rand.Read(payload); err != nil {
		return "", fmt.Errorf("vericode: %w", err)
	}
	sum := sha256.Sum256(payload)
	return base58.Encode(append(payload, sum[:checksumLen]...)), nil
}

// Check validates the embedded checksum of a scanned code.
func Check(code string) error {
	raw := base58.Decode(code)
	if len(raw) != payloadLen+checksumLen {
		return ErrMalformed
	}
	sum := sha256.Sum256(raw[:payloadLen])
	for i := 0; i < checksumLen; i++ {
		if raw[payloadLen+i] != sum[i] {
			return ErrChecksum
		}
	}
	return nil
}

// AnchorHash derives the authenticity digest recorded for a code at mint
// time. The digest, not the code itself, is what gets anchored externally.
func AnchorHash(code string, orderID, productID uuid.UUID) string {
	sum := sha256.Sum256([]byte(code + "|" + orderID.String() + "|" + productID.String()))
	return hex.EncodeToString(sum[:])
}
