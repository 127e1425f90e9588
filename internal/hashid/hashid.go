// Package hashid derives the fixed-length identities that name a page's
// build artifacts.
//
// The identity of an entry must be byte-stable across processes and
// platforms: production serving looks artifacts up by id without ever
// re-deriving the entry, so the same canonical entry has to map to the same
// id forever. Hash reduces a SHA-256 digest to a base-62 string so ids are
// safe in both file names and URLs.
package hashid

import (
	"crypto/sha256"
	"math/big"
)

// Alphabet is the fixed base-62 digit set used for identities.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// DefaultLength is the identity length used for entry ids. Eight base-62
// characters give ~2^47 distinct values, comfortably collision-free for
// manifests of hundreds to low thousands of entries.
const DefaultLength = 8

const pad = "0"

var radix = big.NewInt(int64(len(Alphabet)))

// Hash returns a deterministic base-62 identity of exactly length characters
// for the given content. The same (content, length) pair yields the same
// result on every invocation, process, and platform. Content may be empty.
func Hash(content string, length int) string {
	if length <= 0 {
		return ""
	}

	digest := sha256.Sum256([]byte(content))

	encoded := encode(new(big.Int).SetBytes(digest[:]))

	// Left-pad before truncating so near-zero digests still produce a
	// full-width id.
	for len(encoded) < length {
		encoded = pad + encoded
	}

	return encoded[:length]
}

// encode converts v to its base-62 representation. Zero encodes to "0".
func encode(v *big.Int) string {
	if v.Sign() == 0 {
		return pad
	}

	var digits []byte
	rem := new(big.Int)
	for v.Sign() > 0 {
		v.QuoRem(v, radix, rem)
		digits = append(digits, Alphabet[rem.Int64()])
	}

	// Digits come out least-significant first.
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}

	return string(digits)
}
