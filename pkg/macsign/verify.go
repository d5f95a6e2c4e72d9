package macsign

import (
	"context"
	"runtime"
	"strings"
)

// Overridable in tests; verification scoped to the execution platform must
// not run on cross-platform CI hosts.
var hostOS = runtime.GOOS

// verifySignature confirms the finished signature is structurally valid
// and, when the host can execute the bundle, that Gatekeeper accepts it.
// Either check failing is fatal even though signing reported success. If
// entitlements were configured, the embedded blob is re-displayed for the
// log; a display failure is only a warning.
func verifySignature(ctx context.Context, o *Options) error {
	run := o.executor()
	logger := o.logger()

	if out, err := run.Run(ctx, "codesign", "--verify", "--deep", "--strict", "--verbose=2", o.BundlePath); err != nil {
		return &PipelineError{Kind: ErrVerification, Path: o.BundlePath, Msg: strings.TrimSpace(string(out)), Err: err}
	}
	logger.Info("signature verified", "path", o.BundlePath)

	if o.Platform == PlatformDarwin && hostOS == "darwin" {
		if out, err := run.Run(ctx, "spctl", "--assess", "--type", "execute", "--verbose", o.BundlePath); err != nil {
			return &PipelineError{Kind: ErrGatekeeper, Path: o.BundlePath, Msg: strings.TrimSpace(string(out)), Err: err}
		}
		logger.Info("gatekeeper assessment passed", "path", o.BundlePath)
	}

	if o.Entitlements.IsSet() {
		out, err := run.Run(ctx, "codesign", "--display", "--entitlements", "-", o.BundlePath)
		if err != nil {
			logger.Warn("unable to display embedded entitlements", "err", err)
		} else {
			logger.Debug("embedded entitlements", "plist", strings.TrimSpace(string(out)))
		}
	}

	return nil
}
