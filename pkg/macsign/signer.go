package macsign

import (
	"context"
	"fmt"
	"strings"
)

// signBundle signs every nested component, then the explicit extra
// binaries, then the root bundle itself. The inside-out order is load
// bearing: the enclosing signature covers the signed state of its nested
// code, so a parent signed before a child would be invalidated. The first
// failing invocation aborts the rest.
func signBundle(ctx context.Context, o *Options) error {
	children, err := o.walker().Walk(o.BundlePath)
	if err != nil {
		return fmt.Errorf("walking bundle contents: %w", err)
	}
	children = append(children, o.ExtraBinaries...)

	logger := o.logger()
	run := o.executor()

	for _, child := range children {
		if o.Ignore.IsSet() && o.Ignore.Matches(child) {
			logger.Info("skipping ignored path", "path", child)
			continue
		}
		logger.Debug("signing nested component", "path", child)
		if out, err := run.Run(ctx, "codesign", signArgs(o, child, o.EntitlementsInherit)...); err != nil {
			return &PipelineError{Kind: ErrSigning, Path: child, Msg: strings.TrimSpace(string(out)), Err: err}
		}
	}

	logger.Info("signing bundle", "path", o.BundlePath, "identity", o.Identity)
	if out, err := run.Run(ctx, "codesign", signArgs(o, o.BundlePath, o.Entitlements)...); err != nil {
		return &PipelineError{Kind: ErrSigning, Path: o.BundlePath, Msg: strings.TrimSpace(string(out)), Err: err}
	}
	return nil
}

// signArgs assembles the codesign invocation for one target. Children
// receive the inherit entitlements file; only the root bundle receives the
// root entitlements.
func signArgs(o *Options, target string, entitlements EntitlementsFile) []string {
	args := []string{"--sign", o.Identity, "--force"}
	if o.Keychain != "" {
		args = append(args, "--keychain", o.Keychain)
	}
	if o.Requirements != "" {
		args = append(args, "--requirements", o.Requirements)
	}
	if path := entitlements.Path(); path != "" {
		args = append(args, "--entitlements", path)
	}
	return append(args, target)
}
