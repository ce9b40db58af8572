/*
Package security provides cryptographic services for portod: client
authentication (mTLS via a daemon-local Certificate Authority) and
at-rest encryption of persisted property records, plus the credential
and capability primitives the property engine itself depends on.

# Architecture

	┌─────────────────────────────────────────────┐
	│              Security Architecture          │
	└───┬─────────────────┬────────────────┬──────┘
	    ▼                 ▼                ▼
	┌────────┐      ┌────────────┐   ┌───────────┐
	│ Secrets │      │     CA     │   │ Cred/Cap  │
	│  (GCM)  │      │   (Root)   │   │  model    │
	└────────┘      └────────────┘   └───────────┘

## Daemon encryption key

The CA's root private key is encrypted under a 32-byte daemon key, set
once at startup via SetDaemonEncryptionKey and consulted only by
Encrypt/Decrypt. Persisted property records do not use this key: they are
encrypted by the SecretsManager that pkg/storage's BoltPersist holds.

# Secrets Encryption

SecretsManager wraps AES-256-GCM: EncryptSecret prepends a random nonce
to the ciphertext; DecryptSecret reverses this and fails (tag mismatch)
on any tampering or wrong key.

# Certificate Authority

CertAuthority issues client-authentication certificates so that the
daemon's wire-protocol server (external to this repository) can
authenticate connecting clients via mTLS. The root CA is RSA-4096,
10-year validity; issued client certs are RSA-2048, 90-day validity.

# Credential & Capability Model

Cred resolves uids/gids against the system database (with a numeric-id
escape hatch for privileged callers), tests group membership, and
implements CanControl per the property engine's permission rules.
Capabilities implements the Linux capability mask with |, &, ~ and
semicolon-name Format/Parse. This is core property-engine logic, not an
ambient concern, and every capabilities/capabilities_ambient property
handler in pkg/property calls into it directly.

# See Also

  - pkg/storage — persists CA material and, optionally, encrypted
    property records
  - pkg/property — the capabilities/capabilities_ambient/user/group
    handlers that consume Cred and Capabilities
*/
package security
