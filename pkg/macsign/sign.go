package macsign

import (
	"context"
	"fmt"
)

// Sign signs the application bundle described by opts and verifies the
// result. Stages run strictly in order, each gating the next: validation,
// identity resolution, entitlements resolution, pre-sign mutations,
// signing, verification. Signing mutates on-disk signatures and is not
// rolled back on failure.
func Sign(ctx context.Context, opts *Options) error {
	defer opts.cleanup()

	stages := []pipelineStage{
		{"validate", func(_ context.Context, o *Options) error { return validate(o) }},
		{"resolve identity", resolveIdentity},
		{"resolve entitlements", func(_ context.Context, o *Options) error { return resolveEntitlements(o) }},
		{"pre-sign", preSign},
		{"sign", signBundle},
		{"verify", verifySignature},
	}
	return runPipeline(ctx, opts, stages)
}

// SignWithCallback runs Sign on its own goroutine and reports the outcome
// through cb. cb is invoked exactly once, and no failure escapes this
// boundary as a panic.
func SignWithCallback(opts *Options, cb func(error)) {
	go func() {
		notified := false
		defer func() {
			if r := recover(); r != nil && !notified {
				cb(fmt.Errorf("signing panicked: %v", r))
			}
		}()
		err := Sign(context.Background(), opts)
		notified = true
		cb(err)
	}()
}

// Verify checks an already signed bundle without re-signing it.
func Verify(ctx context.Context, opts *Options) error {
	defer opts.cleanup()

	stages := []pipelineStage{
		{"validate", func(_ context.Context, o *Options) error { return validate(o) }},
		{"verify", verifySignature},
	}
	return runPipeline(ctx, opts, stages)
}
