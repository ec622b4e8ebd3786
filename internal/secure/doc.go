// Package secure keeps the 1Password service account token out of plain
// Go memory between settings resolution and the op invocation.
//
// It wraps memguard: the token is sealed into an encrypted enclave when a
// settings snapshot is taken and only decrypted, into a locked buffer, while
// the child process environment is being built.
//
//	buf := secure.NewSecureBuffer([]byte(token))
//	defer buf.Destroy()
//
//	err := buf.With(func(plain []byte) error {
//	    env = append(env, "OP_SERVICE_ACCOUNT_TOKEN="+string(plain))
//	    return nil
//	})
//
// Opening a buffer mlocks its pages. memguard panics when the lock fails,
// so the process needs enough RLIMIT_MEMLOCK on Linux (a few pages per
// concurrent read).
package secure
