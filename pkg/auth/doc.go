/*
Package auth verifies client passphrases for the Minder control socket.

Every connection must present the shared secret before any command is
accepted. The daemon never stores or compares the plaintext secret after
startup: the configured secret is hashed once with SHA-256, and each
candidate passphrase is hashed and compared digest-to-digest in constant
time.

# Architecture

	┌──────────────────── AUTHENTICATION ────────────────────┐
	│                                                          │
	│  Startup                                                 │
	│  ┌────────────────────────────────────────────┐         │
	│  │  NewVerifier(secret)                        │         │
	│  │  digest = SHA-256(secret)                   │         │
	│  └──────────────────┬─────────────────────────┘         │
	│                     │                                    │
	│  Per connection     ▼                                    │
	│  ┌────────────────────────────────────────────┐         │
	│  │  Verify(candidate)                          │         │
	│  │  SHA-256(candidate) == digest?              │         │
	│  │  constant-time comparison                   │         │
	│  └────────────────────────────────────────────┘         │
	└────────────────────────────────────────────────────────┘

# Usage

	v, err := auth.NewVerifier(cfg.Secret)
	if err != nil {
		return err
	}

	// In the session handler, after reading the password line:
	if !v.Verify(password) {
		conn.Write([]byte("Authentication failed.\n"))
		return
	}

# Design Notes

Constant-Time Comparison:
  - crypto/subtle.ConstantTimeCompare over fixed-length digests
  - Comparison cost does not depend on where the candidate differs

Single Attempt:
  - The verifier itself is stateless and safe for concurrent use
  - One-attempt-per-connection policy is enforced by pkg/server

# Integration Points

  - pkg/server: Calls Verify once per session during authentication
  - pkg/config: Supplies the shared secret
  - cmd/minder: Constructs the verifier at startup

# See Also

  - crypto/subtle: https://pkg.go.dev/crypto/subtle
  - crypto/sha256: https://pkg.go.dev/crypto/sha256
*/
package auth
