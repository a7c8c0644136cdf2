package license

import (
	"encoding/base32"
	"strings"

	"golang.org/x/crypto/sha3"
)

// AdminPrincipal is the fixed principal whose code authorizes a Reset.
const AdminPrincipal = "ADMIN"

// transferCodeLength is the number of base32 characters kept from the
// digest. Eight characters (40 bits) keep codes typable while making
// accidental collisions between keys or principals negligible.
const transferCodeLength = 8

// GenerateCode derives the proof-of-possession code for a (key,
// principal) pair. The code is a deterministic one-way function of its
// inputs and nothing else - not of time, not of stored record state - so
// the issuing side and the verifying side can each recompute it without
// sharing additional secrets.
//
// This is a lightweight anti-tampering check, not a cryptographic
// capability: there is no secret key material, and anyone who knows the
// license key and principal can derive the code.
func GenerateCode(key, principal string) string {
	input := CanonicalKey(key) + "|" + strings.TrimSpace(principal)
	sum := sha3.Sum256([]byte(input))
	return base32.StdEncoding.EncodeToString(sum[:])[:transferCodeLength]
}
