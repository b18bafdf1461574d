// Package internal holds helpers shared by the engine and its flows.
package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

const ticketSecretSize = 32

// NewTicket generates a high-entropy one-time token and its SHA-256. Only
// the hash may be persisted; the raw token goes to the account holder.
func NewTicket() (string, [32]byte, error) {
	var secret [ticketSecretSize]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return "", [32]byte{}, err
	}

	token := base64.RawURLEncoding.EncodeToString(secret[:])
	return token, HashTicket(token), nil
}

// HashTicket hashes a presented ticket token for storage lookup.
func HashTicket(token string) [32]byte {
	return sha256.Sum256([]byte(token))
}

// HashesEqual compares two ticket hashes in constant time.
func HashesEqual(a, b [32]byte) bool {
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
