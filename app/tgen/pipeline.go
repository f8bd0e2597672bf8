package tgen

import (
	"context"

	"github.com/usnistgov/tgenctl/engine"
)

// Pipeline is a sequence of processing modules on one core, with an optional rate limiter.
type Pipeline struct {
	Modules []engine.ModuleHandle `json:"modules"`
	// TC is the traffic class that limits this pipeline.
	// If empty, the rate is set on the first module.
	TC engine.TrafficClass `json:"tc,omitempty"`
}

// HasRateLimiter determines whether the pipeline is limited by a traffic class.
func (p Pipeline) HasRateLimiter() bool {
	return p.TC != ""
}

// Validate checks whether the pipeline can have its rate set.
func (p Pipeline) Validate() error {
	if !p.HasRateLimiter() && len(p.Modules) == 0 {
		return ErrPipelineModule
	}
	return nil
}

func (p Pipeline) clone() Pipeline {
	p.Modules = append([]engine.ModuleHandle{}, p.Modules...)
	return p
}

// SetRate changes transmission rate of the pipeline.
// A rate limiter receives an integral packet limit, truncated toward zero.
func (p Pipeline) SetRate(ctx context.Context, eng engine.Engine, pps float64) error {
	if p.HasRateLimiter() {
		return eng.UpdateRateLimiter(ctx, p.TC, engine.ResourcePacket, uint64(pps))
	}
	return eng.UpdateModule(ctx, p.Modules[0], pps)
}
