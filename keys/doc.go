// Package keys signs and verifies document payloads.
//
// Public keys are written as "<scheme>:<base64>" (scheme ed25519 or dilithium3)
// and signature values as "<hash>:<base64>", where the signature is computed over
// hash(payload). Both strings are what the document's conclusions record in the
// publicKey reference and digitalSignature elements.
//
// The filesystem Store is a local convenience for seeds and role keys; it is not
// needed to sign or verify.
package keys
