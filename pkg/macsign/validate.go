package macsign

import (
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
)

// validate rejects malformed requests before any side effect. Its only
// mutation is filling in the signing type default.
func validate(o *Options) error {
	if o.BundlePath == "" {
		return invalidf("bundle path is required")
	}
	if filepath.Ext(o.BundlePath) != ".app" {
		return invalidf("bundle path %q is not a .app bundle", o.BundlePath)
	}
	if info, err := os.Stat(o.BundlePath); err != nil {
		return invalidf("bundle path %q: %v", o.BundlePath, err)
	} else if !info.IsDir() {
		return invalidf("bundle path %q is not a directory", o.BundlePath)
	}

	switch o.Platform {
	case PlatformDarwin, PlatformMAS:
	default:
		return invalidf("unrecognized platform %q", o.Platform)
	}

	switch o.SigningType {
	case "":
		o.SigningType = TypeDistribution
	case TypeDevelopment, TypeDistribution:
	default:
		return invalidf("signing type must be %q or %q, got %q", TypeDevelopment, TypeDistribution, o.SigningType)
	}

	if o.Ignore.fn != nil && o.Ignore.pattern != "" {
		return invalidf("ignore rule carries both a predicate and a pattern")
	}

	if o.ProvisioningProfilePath != "" && o.ProvisioningProfile != nil {
		return invalidf("provisioning profile given both as a path and as a parsed profile")
	}

	for i, p := range o.ExtraBinaries {
		if p == "" {
			return invalidf("extra binary at index %d is empty", i)
		}
	}

	if p := o.Entitlements.Path(); p != "" {
		if _, err := os.Stat(p); err != nil {
			return invalidf("entitlements file %q: %v", p, err)
		}
	}
	if p := o.EntitlementsInherit.Path(); p != "" {
		if _, err := os.Stat(p); err != nil {
			return invalidf("inherit entitlements file %q: %v", p, err)
		}
	}

	if o.TargetAppVersion != "" {
		if _, err := semver.NewVersion(o.TargetAppVersion); err != nil {
			return invalidf("target app version %q: %v", o.TargetAppVersion, err)
		}
	}

	return nil
}
