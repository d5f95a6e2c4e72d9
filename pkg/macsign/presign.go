package macsign

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"howett.net/plist"
)

// autoEntitlementsThreshold is the first app runtime version whose sandbox
// honors the augmented entitlement keys.
var autoEntitlementsThreshold = semver.MustParse("1.1.1")

// preSign runs the bundle-mutating stages in fixed order: provisioning
// profile embedding, then automatic entitlements augmentation. A failure in
// either stage aborts the whole run; no partial pre-sign state is valid.
func preSign(ctx context.Context, o *Options) error {
	if !o.SkipEmbedProvisioningProfile {
		if err := embedProvisioningProfile(o); err != nil {
			return &PipelineError{Kind: ErrPreSign, Msg: "embedding provisioning profile", Err: err}
		}
	}
	if !o.SkipAutoEntitlements {
		if err := autoEntitlements(o); err != nil {
			return &PipelineError{Kind: ErrPreSign, Msg: "augmenting entitlements", Err: err}
		}
	}
	return nil
}

// embedProvisioningProfile copies the configured profile into the bundle as
// Contents/embedded.provisionprofile, rejecting expired profiles and
// profiles whose type disagrees with the request. Without a configured
// profile the stage does nothing.
func embedProvisioningProfile(o *Options) error {
	profile := o.ProvisioningProfile
	if profile == nil && o.ProvisioningProfilePath != "" {
		var err error
		profile, err = LoadProvisioningProfile(o.ProvisioningProfilePath)
		if err != nil {
			return err
		}
	}
	if profile == nil {
		o.logger().Debug("no provisioning profile configured, skipping embed")
		return nil
	}

	if profile.IsExpired() {
		return fmt.Errorf("provisioning profile %q has expired", profile.Name)
	}
	if pt := profile.Type(); pt != o.SigningType {
		return fmt.Errorf("provisioning profile %q is a %s profile, request is %s", profile.Name, pt, o.SigningType)
	}

	dest := filepath.Join(o.BundlePath, "Contents", "embedded.provisionprofile")
	if err := os.WriteFile(dest, profile.Raw, 0o644); err != nil {
		return fmt.Errorf("failed to write embedded.provisionprofile: %w", err)
	}

	o.ProvisioningProfile = profile
	o.logger().Info("embedded provisioning profile", "name", profile.Name, "team", profile.TeamID())
	return nil
}

// autoEntitlements rewrites the root entitlements file to add the sandbox
// identity keys (application identifier, team identifier, application
// groups) derived from the provisioning profile and the bundle identifier.
// The stage is skipped, not failed, when entitlements are unset or the
// target app runtime predates sandbox inheritance.
func autoEntitlements(o *Options) error {
	if !o.Entitlements.IsSet() {
		return nil
	}
	if o.TargetAppVersion != "" {
		v, err := semver.NewVersion(o.TargetAppVersion)
		if err != nil {
			return fmt.Errorf("target app version %q: %w", o.TargetAppVersion, err)
		}
		if v.LessThan(autoEntitlementsThreshold) {
			o.logger().Debug("target app version predates sandbox inheritance, skipping entitlement augmentation",
				"version", o.TargetAppVersion)
			return nil
		}
	}
	if o.ProvisioningProfile == nil {
		o.logger().Warn("cannot augment entitlements without a provisioning profile")
		return nil
	}

	teamID := o.ProvisioningProfile.TeamID()
	if teamID == "" {
		return fmt.Errorf("provisioning profile %q carries no team identifier", o.ProvisioningProfile.Name)
	}
	bundleID, err := bundleIdentifier(o.BundlePath)
	if err != nil {
		return err
	}
	appID := teamID + "." + bundleID

	data, err := os.ReadFile(o.Entitlements.Path())
	if err != nil {
		return fmt.Errorf("failed to read entitlements: %w", err)
	}
	var entitlements map[string]interface{}
	if _, err := plist.Unmarshal(data, &entitlements); err != nil {
		return fmt.Errorf("failed to parse entitlements: %w", err)
	}
	if entitlements == nil {
		entitlements = map[string]interface{}{}
	}

	entitlements["com.apple.application-identifier"] = appID
	entitlements["com.apple.developer.team-identifier"] = teamID
	entitlements["com.apple.security.application-groups"] = appendGroup(
		entitlements["com.apple.security.application-groups"], appID)

	out, err := plist.MarshalIndent(entitlements, plist.XMLFormat, "\t")
	if err != nil {
		return fmt.Errorf("failed to marshal entitlements: %w", err)
	}

	// Never clobber a caller-supplied file; the augmented plist lives in the
	// run's scratch directory.
	path, err := o.scratchFile("entitlements.auto.plist", out)
	if err != nil {
		return fmt.Errorf("failed to write augmented entitlements: %w", err)
	}
	o.Entitlements = EntitlementsPath(path)

	o.logger().Info("augmented entitlements",
		"application-identifier", appID, "team-identifier", teamID)
	return nil
}

func appendGroup(existing interface{}, group string) []interface{} {
	groups, _ := existing.([]interface{})
	for _, g := range groups {
		if g == group {
			return groups
		}
	}
	return append(groups, group)
}
