package macsign

import (
	"os"
	"strings"
	"testing"
)

func TestResolveEntitlementsMASDefaults(t *testing.T) {
	o := &Options{Platform: PlatformMAS}
	defer o.cleanup()

	if err := resolveEntitlements(o); err != nil {
		t.Fatalf("resolveEntitlements failed: %v", err)
	}

	rootPath := o.Entitlements.Path()
	inheritPath := o.EntitlementsInherit.Path()
	if rootPath == "" || inheritPath == "" {
		t.Fatalf("mas requires both entitlements files, got root=%q inherit=%q", rootPath, inheritPath)
	}
	if rootPath == inheritPath {
		t.Fatal("root and inherit entitlements must be distinct files")
	}

	root, err := os.ReadFile(rootPath)
	if err != nil {
		t.Fatalf("reading root entitlements: %v", err)
	}
	inherit, err := os.ReadFile(inheritPath)
	if err != nil {
		t.Fatalf("reading inherit entitlements: %v", err)
	}
	if string(root) == string(inherit) {
		t.Error("root and inherit templates should differ")
	}
	if got := string(inherit); !containsAll(got, "com.apple.security.app-sandbox", "com.apple.security.inherit") {
		t.Errorf("inherit template missing sandbox keys:\n%s", got)
	}
}

func TestResolveEntitlementsDarwinUnsetStaysUnset(t *testing.T) {
	o := &Options{Platform: PlatformDarwin}
	defer o.cleanup()

	if err := resolveEntitlements(o); err != nil {
		t.Fatalf("resolveEntitlements failed: %v", err)
	}
	if o.Entitlements.IsSet() || o.EntitlementsInherit.IsSet() {
		t.Errorf("darwin with no entitlements should leave both unset, got %+v / %+v",
			o.Entitlements, o.EntitlementsInherit)
	}
}

func TestResolveEntitlementsDarwinDefaultSentinel(t *testing.T) {
	o := &Options{Platform: PlatformDarwin, Entitlements: DefaultEntitlements()}
	defer o.cleanup()

	if err := resolveEntitlements(o); err != nil {
		t.Fatalf("resolveEntitlements failed: %v", err)
	}
	if o.Entitlements.Path() == "" {
		t.Error("default sentinel should materialize a template path")
	}
	if o.EntitlementsInherit.Path() == "" {
		t.Error("inherit file should default when root entitlements are set")
	}
}

func TestResolveEntitlementsDarwinExplicitPathDefaultsInherit(t *testing.T) {
	o := &Options{Platform: PlatformDarwin}
	defer o.cleanup()

	custom, err := o.scratchFile("custom.plist", []byte(darwinEntitlementsPlist))
	if err != nil {
		t.Fatalf("scratchFile: %v", err)
	}
	o.Entitlements = EntitlementsPath(custom)

	if err := resolveEntitlements(o); err != nil {
		t.Fatalf("resolveEntitlements failed: %v", err)
	}
	if o.Entitlements.Path() != custom {
		t.Errorf("explicit entitlements path should be preserved, got %q", o.Entitlements.Path())
	}
	if o.EntitlementsInherit.Path() == "" {
		t.Error("inherit file should default to the bundled template")
	}
}

func TestBundleIdentifier(t *testing.T) {
	app := makeBundle(t)

	id, err := bundleIdentifier(app)
	if err != nil {
		t.Fatalf("bundleIdentifier failed: %v", err)
	}
	if id != "com.example.testapp" {
		t.Errorf("expected com.example.testapp, got %q", id)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
