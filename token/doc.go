// Package token issues and verifies compact signed session handles. A handle
// embeds only the session ID and a fingerprint digest; every verification
// still delegates to the session store, so revocation and expiry hold even
// for a handle with a valid signature.
package token
