package macsign

import "context"

// A pipelineStage is one fallible step of a signing run. Stages execute
// strictly in order; the first failure aborts the rest.
type pipelineStage struct {
	name string
	run  func(ctx context.Context, o *Options) error
}

func runPipeline(ctx context.Context, o *Options, stages []pipelineStage) error {
	logger := o.logger()
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Debug("stage starting", "stage", stage.name)
		if err := stage.run(ctx, o); err != nil {
			logger.Error("stage failed", "stage", stage.name, "err", err)
			return err
		}
	}
	return nil
}
