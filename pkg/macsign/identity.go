package macsign

import (
	"context"
	"fmt"
	"os"
	"strings"

	gop12 "software.sslmate.com/src/go-pkcs12"
)

// IdentityStore queries the system identity store for code-signing
// identities whose name matches a pattern.
type IdentityStore interface {
	Find(ctx context.Context, pattern string) ([]string, error)
}

// securityStore backs IdentityStore with `security find-identity`.
type securityStore struct {
	exec     Executor
	keychain string
}

func (s securityStore) Find(ctx context.Context, pattern string) ([]string, error) {
	args := []string{"find-identity", "-p", "codesigning", "-v"}
	if s.keychain != "" {
		args = append(args, s.keychain)
	}
	out, err := s.exec.Run(ctx, "security", args...)
	if err != nil {
		return nil, err
	}
	return matchIdentities(out, pattern), nil
}

// matchIdentities parses `security find-identity` output. Each identity line
// carries the quoted name:
//
//	1) A1B2C3... "Developer ID Application: Example Corp (TEAM123456)"
func matchIdentities(out []byte, pattern string) []string {
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(line, `"`) {
			continue
		}
		parts := strings.SplitN(line, `"`, 3)
		if len(parts) < 3 {
			continue
		}
		if name := parts[1]; strings.Contains(name, pattern) {
			names = append(names, name)
		}
	}
	return names
}

// searchPattern derives the certificate-name prefix to search for from the
// platform and signing type.
func searchPattern(platform Platform, signingType SigningType) string {
	if platform == PlatformMAS {
		if signingType == TypeDevelopment {
			return "Mac Developer:"
		}
		return "3rd Party Mac Developer Application:"
	}
	return "Developer ID Application:"
}

// resolveIdentity turns the request's identity (or the platform-derived
// pattern) into exactly one identity string. Zero matches is fatal. More
// than one match warns and proceeds with the store's first entry; callers
// needing a specific identity among duplicates must pass Identity
// explicitly.
func resolveIdentity(ctx context.Context, o *Options) error {
	pattern := o.Identity
	if pattern == "" {
		pattern = searchPattern(o.Platform, o.SigningType)
	}

	matches, err := o.identityStore().Find(ctx, pattern)
	if err != nil {
		return fmt.Errorf("identity lookup: %w", err)
	}

	switch {
	case len(matches) == 0:
		return &PipelineError{Kind: ErrNoIdentity, Msg: fmt.Sprintf("no identity matches %q", pattern)}
	case len(matches) > 1:
		o.logger().Warn("multiple identities match, using the first",
			"pattern", pattern, "count", len(matches), "identity", matches[0])
	}

	o.Identity = matches[0]
	o.logger().Info("resolved signing identity", "identity", o.Identity)
	return nil
}

// ListIdentities returns every code-signing identity the keychain reports.
// An empty keychain means the default search list.
func ListIdentities(ctx context.Context, keychain string) ([]string, error) {
	store := securityStore{exec: execRunner{}, keychain: keychain}
	return store.Find(ctx, "")
}

// IdentityFromP12 derives the signing identity name from a PKCS#12
// certificate file, so CI setups can point at a .p12 instead of naming the
// identity. The certificate itself must already be imported into a keychain
// for codesign to use it.
func IdentityFromP12(path, password string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read P12 file: %w", err)
	}

	_, cert, _, err := gop12.DecodeChain(data, password)
	if err != nil {
		return "", fmt.Errorf("failed to decode P12: %w", err)
	}

	if cert.Subject.CommonName == "" {
		return "", fmt.Errorf("certificate in %s has no common name", path)
	}
	return cert.Subject.CommonName, nil
}
