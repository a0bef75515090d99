package result

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"surveyforge/internal/generative"
	"surveyforge/internal/logger"
	"surveyforge/internal/model"
)

// Policy selects how generating components are scheduled across each other
type Policy string

const (
	// PolicySequential generates one component at a time in render order
	PolicySequential Policy = "sequential"
	// PolicyParallel generates up to MaxParallel components at once
	PolicyParallel Policy = "parallel"
)

// ParsePolicy maps a config value to a Policy, defaulting to sequential
func ParsePolicy(s string) Policy {
	if Policy(strings.ToLower(strings.TrimSpace(s))) == PolicyParallel {
		return PolicyParallel
	}
	return PolicySequential
}

// Orchestrator runs generation recipes for a session and writes their
// outcomes into its Store.
type Orchestrator struct {
	caps        Capabilities
	policy      Policy
	maxParallel int
	callTimeout time.Duration
	log         zerolog.Logger
}

type Option func(*Orchestrator)

func WithPolicy(p Policy) Option { return func(o *Orchestrator) { o.policy = p } }

func WithMaxParallel(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxParallel = n
		}
	}
}

// WithCallTimeout bounds each component's recipe. Zero means no bound beyond ctx.
func WithCallTimeout(d time.Duration) Option { return func(o *Orchestrator) { o.callTimeout = d } }

func WithLogger(l zerolog.Logger) Option { return func(o *Orchestrator) { o.log = l } }

func NewOrchestrator(caps Capabilities, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		caps:        caps,
		policy:      PolicySequential,
		maxParallel: 2,
		log:         logger.For("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run generates every component in store that needs it. Component failures
// end up as Failed states; Run only returns an error when the session itself
// went away (ctx cancelled or store closed).
func (o *Orchestrator) Run(ctx context.Context, store *Store, qc Context) error {
	var pending []Component
	for _, c := range store.Components() {
		if c.RequiresGeneration() {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	if o.policy == PolicyParallel {
		err = o.runParallel(ctx, store, pending, qc)
	} else {
		err = o.runSequential(ctx, store, pending, qc)
	}
	o.log.Debug().Err(err).Int("components", len(pending)).Str("policy", string(o.policy)).
		Dur("took", time.Since(start)).Msg("generation run finished")
	return err
}

func (o *Orchestrator) runSequential(ctx context.Context, store *Store, pending []Component, qc Context) error {
	for _, c := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.runOne(ctx, store, c, qc); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) runParallel(ctx context.Context, store *Store, pending []Component, qc Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxParallel)
	for _, c := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return o.runOne(gctx, store, c, qc)
		})
	}
	return g.Wait()
}

// runOne drives a single component Idle -> Generating -> Ready|Failed
func (o *Orchestrator) runOne(ctx context.Context, store *Store, c Component, qc Context) error {
	if err := store.Set(c.ID, model.Generating()); err != nil {
		return err
	}
	state := o.generate(ctx, c, qc)
	if err := store.Set(c.ID, state); err != nil {
		if errors.Is(err, ErrStoreClosed) {
			o.log.Debug().Str("componentId", c.ID).Msg("session closed, dropping generation result")
		}
		return err
	}
	return nil
}

func (o *Orchestrator) generate(ctx context.Context, c Component, qc Context) (state model.GenerationState) {
	if c.ConfigErr != nil {
		return model.Failed(c.ConfigErr.Error())
	}
	v := c.Variant()

	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Str("componentId", c.ID).Interface("panic", r).Msg("generation recipe panicked")
			state = model.Failed(fmt.Sprintf("%s: %v", v.FailureMessage, r))
		}
	}()

	callCtx := ctx
	if o.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.callTimeout)
		defer cancel()
	}

	payload, err := v.Generate(callCtx, o.caps, c.Config, qc)
	if err == nil && payload == nil {
		err = errors.New("generation produced no content")
	}
	if err != nil {
		o.log.Warn().Err(err).Str("componentId", c.ID).Str("type", string(c.Type)).Msg("component generation failed")
		return model.Failed(failureMessage(v, err))
	}
	return model.Ready(payload)
}

func failureMessage(v *Variant, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Generation timed out"
	}
	var up *generative.UpstreamError
	if errors.As(err, &up) && strings.TrimSpace(up.Message) == "" {
		return v.FailureMessage
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return v.FailureMessage
}
