package uacore

import (
	"log/slog"
	"time"
)

// SpaceOption is a functional option for configuring an AddressSpace.
type SpaceOption func(*spaceOptions)

type spaceOptions struct {
	logger         *slog.Logger
	metrics        *Metrics
	maxBrowseDepth int
}

// DefaultMaxBrowseDepth bounds the recursion of browse path translation.
// OPC UA relative paths are short; anything deeper is rejected as too
// complex.
const DefaultMaxBrowseDepth = 32

func defaultSpaceOptions() *spaceOptions {
	return &spaceOptions{
		logger:         slog.Default(),
		maxBrowseDepth: DefaultMaxBrowseDepth,
	}
}

// WithSpaceLogger sets the address space logger.
func WithSpaceLogger(logger *slog.Logger) SpaceOption {
	return func(o *spaceOptions) {
		o.logger = logger
	}
}

// WithSpaceMetrics attaches Prometheus metrics to the address space.
func WithSpaceMetrics(m *Metrics) SpaceOption {
	return func(o *spaceOptions) {
		o.metrics = m
	}
}

// WithMaxBrowseDepth sets the maximum relative path length accepted by
// browse path translation.
func WithMaxBrowseDepth(depth int) SpaceOption {
	return func(o *spaceOptions) {
		if depth > 0 {
			o.maxBrowseDepth = depth
		}
	}
}

// EngineOption is a functional option for configuring a PublishEngine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	logger        *slog.Logger
	metrics       *Metrics
	pipelineDepth int
	timeoutHint   time.Duration
}

func defaultEngineOptions() *engineOptions {
	return &engineOptions{
		logger:        slog.Default(),
		pipelineDepth: DefaultPipelineDepth,
		timeoutHint:   DefaultTimeoutHint,
	}
}

// WithEngineLogger sets the publish engine logger.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithEngineMetrics attaches Prometheus metrics to the publish engine.
func WithEngineMetrics(m *Metrics) EngineOption {
	return func(o *engineOptions) {
		o.metrics = m
	}
}

// WithPipelineDepth sets the number of publish requests kept outstanding
// per subscription registration.
func WithPipelineDepth(depth int) EngineOption {
	return func(o *engineOptions) {
		if depth > 0 {
			o.pipelineDepth = depth
		}
	}
}

// WithTimeoutHint sets the initial publish request timeout hint.
func WithTimeoutHint(d time.Duration) EngineOption {
	return func(o *engineOptions) {
		if d > 0 {
			o.timeoutHint = d
		}
	}
}
