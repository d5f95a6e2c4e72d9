package macsign

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Platform selects the distribution target, which determines the identity
// search pattern and the entitlements defaults.
type Platform string

const (
	// PlatformDarwin targets distribution outside the Mac App Store.
	PlatformDarwin Platform = "darwin"
	// PlatformMAS targets Mac App Store submission.
	PlatformMAS Platform = "mas"
)

// SigningType selects between development and distribution certificates.
type SigningType string

const (
	TypeDevelopment  SigningType = "development"
	TypeDistribution SigningType = "distribution"
)

// EntitlementsFile is a three-state value: unset, "use the bundled default
// template", or an explicit plist path. The zero value is unset.
type EntitlementsFile struct {
	useDefault bool
	path       string
}

// DefaultEntitlements requests the bundled template for the platform.
func DefaultEntitlements() EntitlementsFile { return EntitlementsFile{useDefault: true} }

// EntitlementsPath points at a caller-supplied entitlements plist.
func EntitlementsPath(path string) EntitlementsFile { return EntitlementsFile{path: path} }

func (e EntitlementsFile) IsSet() bool      { return e.useDefault || e.path != "" }
func (e EntitlementsFile) UseDefault() bool { return e.useDefault }
func (e EntitlementsFile) Path() string     { return e.path }

// IgnoreRule decides whether a discovered child path is skipped during
// signing. It is either a predicate function or a substring pattern.
type IgnoreRule struct {
	fn      func(path string) bool
	pattern string
}

// IgnoreFunc skips every path for which fn reports true.
func IgnoreFunc(fn func(path string) bool) IgnoreRule { return IgnoreRule{fn: fn} }

// IgnorePattern skips every path containing pattern as a substring.
func IgnorePattern(pattern string) IgnoreRule { return IgnoreRule{pattern: pattern} }

func (r IgnoreRule) IsSet() bool { return r.fn != nil || r.pattern != "" }

func (r IgnoreRule) Matches(path string) bool {
	if r.fn != nil {
		return r.fn(path)
	}
	if r.pattern != "" {
		return strings.Contains(path, r.pattern)
	}
	return false
}

// Options describes one signing run. It is built once per run and enriched
// in place by the pipeline stages: the identity is filled in by resolution,
// entitlements are defaulted per platform, and so on. An Options value must
// not be shared across concurrent runs.
type Options struct {
	// BundlePath is the .app bundle to sign.
	BundlePath string

	// Platform is darwin or mas.
	Platform Platform

	// SigningType is development or distribution. Empty means distribution.
	SigningType SigningType

	// Identity, when set, is used as the keychain search term instead of the
	// platform-derived pattern.
	Identity string

	// Entitlements applies to the root bundle; EntitlementsInherit applies to
	// every nested component so it inherits constraints from the parent.
	Entitlements        EntitlementsFile
	EntitlementsInherit EntitlementsFile

	// ProvisioningProfilePath names a .provisionprofile file on disk.
	// ProvisioningProfile carries an already parsed profile. At most one of
	// the two may be set.
	ProvisioningProfilePath string
	ProvisioningProfile     *ProvisioningProfile

	// Ignore skips matching child paths during signing. Skipped paths are
	// logged, not signed, and do not fail the run.
	Ignore IgnoreRule

	// ExtraBinaries are signed alongside the bundle's discovered contents,
	// after them but still before the root bundle.
	ExtraBinaries []string

	// Keychain and Requirements are forwarded verbatim to codesign.
	Keychain     string
	Requirements string

	// SkipEmbedProvisioningProfile and SkipAutoEntitlements disable the
	// corresponding pre-sign stages. Both stages run by default.
	SkipEmbedProvisioningProfile bool
	SkipAutoEntitlements         bool

	// TargetAppVersion gates the auto-entitlements stage: the stage is
	// skipped for app runtimes older than 1.1.1, whose sandbox cannot honor
	// the augmented keys.
	TargetAppVersion string

	// Logger receives pipeline progress. Nil discards all output.
	Logger *log.Logger

	// Collaborators, overridable for testing. Nil selects the defaults that
	// shell out to codesign, security, and the filesystem.
	Executor   Executor
	Identities IdentityStore
	Walker     BundleWalker

	// Scratch directory for materialized entitlement templates, owned by the
	// run and removed afterwards.
	tempDir string
}

func (o *Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard)
}

func (o *Options) executor() Executor {
	if o.Executor != nil {
		return o.Executor
	}
	return execRunner{}
}

func (o *Options) identityStore() IdentityStore {
	if o.Identities != nil {
		return o.Identities
	}
	return securityStore{exec: o.executor(), keychain: o.Keychain}
}

func (o *Options) walker() BundleWalker {
	if o.Walker != nil {
		return o.Walker
	}
	return defaultWalker{}
}

// scratchFile writes content into the run's scratch directory, creating the
// directory on first use.
func (o *Options) scratchFile(name string, content []byte) (string, error) {
	if o.tempDir == "" {
		dir, err := os.MkdirTemp("", "macsign-")
		if err != nil {
			return "", err
		}
		o.tempDir = dir
	}
	path := filepath.Join(o.tempDir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (o *Options) cleanup() {
	if o.tempDir != "" {
		os.RemoveAll(o.tempDir)
		o.tempDir = ""
	}
}
