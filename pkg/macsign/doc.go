// Package macsign orchestrates code-signing of macOS application bundles
// for distribution, both outside the Mac App Store (Developer ID) and for
// App Store submission.
//
// The cryptographic work is delegated to the system codesign tool and the
// keychain. This package owns the pipeline around it: discovering the right
// signing identity, resolving entitlement policy, embedding provisioning
// profiles, signing nested components inside-out, and verifying the result.
//
// # Basic Usage
//
// To sign a bundle with a Developer ID identity resolved from the keychain:
//
//	err := macsign.Sign(ctx, &macsign.Options{
//	    BundlePath: "MyApp.app",
//	    Platform:   macsign.PlatformDarwin,
//	})
//
// Every stage gates the next; the first failure aborts the whole run. There
// is no rollback of signatures already applied, and a bundle must not be
// signed concurrently by more than one run.
package macsign
