package macsign

import (
	"fmt"
	"os"
	"path/filepath"

	"howett.net/plist"
)

// Bundled entitlement templates, materialized into the run's scratch
// directory when a request asks for platform defaults.

const masEntitlementsPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
  <dict>
    <key>com.apple.security.app-sandbox</key>
    <true/>
  </dict>
</plist>
`

const masInheritEntitlementsPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
  <dict>
    <key>com.apple.security.app-sandbox</key>
    <true/>
    <key>com.apple.security.inherit</key>
    <true/>
  </dict>
</plist>
`

const darwinEntitlementsPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
  <dict>
    <key>com.apple.security.cs.disable-library-validation</key>
    <true/>
    <key>com.apple.security.cs.allow-dyld-environment-variables</key>
    <true/>
  </dict>
</plist>
`

const darwinInheritEntitlementsPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
  <dict>
    <key>com.apple.security.inherit</key>
    <true/>
  </dict>
</plist>
`

func entitlementsTemplate(platform Platform, inherit bool) string {
	if platform == PlatformMAS {
		if inherit {
			return masInheritEntitlementsPlist
		}
		return masEntitlementsPlist
	}
	if inherit {
		return darwinInheritEntitlementsPlist
	}
	return darwinEntitlementsPlist
}

// resolveEntitlements computes the effective entitlements files in place.
//
// Mac App Store distribution requires sandbox entitlements, so for mas both
// the root and inherit files fall back to the bundled templates. For darwin
// entitlements are optional: when unset they stay unset and codesign is
// invoked without --entitlements; when the caller asked for defaults, or
// set a root file without an inherit file, the bundled templates fill the
// gaps.
func resolveEntitlements(o *Options) error {
	if o.Platform == PlatformMAS {
		if !o.Entitlements.IsSet() {
			o.Entitlements = DefaultEntitlements()
		}
		if !o.EntitlementsInherit.IsSet() {
			o.EntitlementsInherit = DefaultEntitlements()
		}
	} else {
		if !o.Entitlements.IsSet() {
			return nil
		}
		if !o.EntitlementsInherit.IsSet() {
			o.EntitlementsInherit = DefaultEntitlements()
		}
	}

	if o.Entitlements.UseDefault() {
		path, err := o.scratchFile("entitlements.plist", []byte(entitlementsTemplate(o.Platform, false)))
		if err != nil {
			return fmt.Errorf("materializing entitlements template: %w", err)
		}
		o.Entitlements = EntitlementsPath(path)
	}
	if o.EntitlementsInherit.UseDefault() {
		path, err := o.scratchFile("entitlements.inherit.plist", []byte(entitlementsTemplate(o.Platform, true)))
		if err != nil {
			return fmt.Errorf("materializing inherit entitlements template: %w", err)
		}
		o.EntitlementsInherit = EntitlementsPath(path)
	}

	o.logger().Debug("resolved entitlements",
		"entitlements", o.Entitlements.Path(), "inherit", o.EntitlementsInherit.Path())
	return nil
}

// bundleIdentifier reads CFBundleIdentifier from the bundle's Info.plist.
func bundleIdentifier(bundlePath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(bundlePath, "Contents", "Info.plist"))
	if err != nil {
		return "", fmt.Errorf("failed to read Info.plist: %w", err)
	}

	var info map[string]interface{}
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return "", fmt.Errorf("failed to parse Info.plist: %w", err)
	}

	id, _ := info["CFBundleIdentifier"].(string)
	if id == "" {
		return "", fmt.Errorf("Info.plist has no CFBundleIdentifier")
	}
	return id, nil
}
