// Package hash provides helpers for hashing and verifying secrets.
//
// Recovery codes are stored as salted Argon2id hashes; challenge codes and
// other high-entropy tokens use keyed HMAC-SHA256. Only hashes are
// persisted, and verification compares in constant time.
package hash
