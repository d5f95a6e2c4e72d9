package macsign

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testInfoPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleIdentifier</key>
	<string>com.example.testapp</string>
	<key>CFBundleExecutable</key>
	<string>TestApp</string>
</dict>
</plist>`

// makeBundle synthesizes a minimal .app bundle layout in a temp directory.
func makeBundle(t *testing.T) string {
	t.Helper()
	appPath := filepath.Join(t.TempDir(), "TestApp.app")
	mustMkdir(t, filepath.Join(appPath, "Contents", "MacOS"))
	mustWrite(t, filepath.Join(appPath, "Contents", "Info.plist"), testInfoPlist)
	mustWrite(t, filepath.Join(appPath, "Contents", "MacOS", "TestApp"), "not a real binary")
	return appPath
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

type call struct {
	name string
	args []string
}

func (c call) has(flag string) bool {
	for _, a := range c.args {
		if a == flag {
			return true
		}
	}
	return false
}

// flagValue returns the argument following flag, or "".
func (c call) flagValue(flag string) string {
	for i, a := range c.args {
		if a == flag && i+1 < len(c.args) {
			return c.args[i+1]
		}
	}
	return ""
}

func (c call) target() string {
	if len(c.args) == 0 {
		return ""
	}
	return c.args[len(c.args)-1]
}

// fakeExecutor records every invocation and fails the ones failOn matches.
type fakeExecutor struct {
	calls  []call
	failOn func(name string, args []string) bool
	output string
}

func (f *fakeExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.failOn != nil && f.failOn(name, args) {
		return []byte(f.output), fmt.Errorf("%s exited 1", name)
	}
	return []byte(f.output), nil
}

// signCalls returns the recorded codesign invocations that carry --sign.
func (f *fakeExecutor) signCalls() []call {
	var out []call
	for _, c := range f.calls {
		if c.name == "codesign" && c.has("--sign") {
			out = append(out, c)
		}
	}
	return out
}

type fakeStore struct {
	identities []string
	err        error
	patterns   []string
}

func (f *fakeStore) Find(ctx context.Context, pattern string) ([]string, error) {
	f.patterns = append(f.patterns, pattern)
	return f.identities, f.err
}

type fakeWalker struct {
	paths []string
	err   error
}

func (f fakeWalker) Walk(bundlePath string) ([]string, error) {
	return f.paths, f.err
}

func failOnArg(substr string) func(string, []string) bool {
	return func(name string, args []string) bool {
		for _, a := range args {
			if strings.Contains(a, substr) {
				return true
			}
		}
		return false
	}
}
