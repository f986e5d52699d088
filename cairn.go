package cairn

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BiAffectBridge/cairn/internal/logging"
	"github.com/BiAffectBridge/cairn/internal/runtime"
	"github.com/BiAffectBridge/cairn/pkg/domain"
	"github.com/BiAffectBridge/cairn/pkg/ports"
)

// Engine is the high-level entry point for the library. It resolves
// assessments through a loader and wires up the navigation state machine
// for each run.
type Engine struct {
	loader       ports.AssessmentLoader
	logger       *slog.Logger
	hooks        domain.LifecycleHooks
	stateFactory ports.NodeStateFactory
	navFactory   ports.NavigatorFactory
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks fired on node entry,
// node exit, and run completion.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithNodeStateFactory installs an engine-level custom node state factory.
// The controller's own CustomNodeStateFor still takes precedence.
func WithNodeStateFactory(f ports.NodeStateFactory) Option {
	return func(e *Engine) {
		e.stateFactory = f
	}
}

// WithNavigatorFactory substitutes the navigator built for each container.
func WithNavigatorFactory(f ports.NavigatorFactory) Option {
	return func(e *Engine) {
		e.navFactory = f
	}
}

// New creates an engine over the given assessment loader.
func New(loader ports.AssessmentLoader, opts ...Option) (*Engine, error) {
	if loader == nil {
		return nil, fmt.Errorf("an assessment loader is required")
	}
	e := &Engine{
		loader: loader,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Start loads the assessment, builds the root navigation state, and enters
// the first node. Loading is the only asynchronous boundary: once Start
// returns, all navigation is synchronous and driven by the host.
func (e *Engine) Start(ctx context.Context, assessmentID string, controller ports.RootNodeController) (ports.RootNodeState, error) {
	root, err := e.prepare(ctx, assessmentID, controller, nil)
	if err != nil {
		return nil, err
	}
	if err := root.GoForward(ctx, nil); err != nil {
		return nil, err
	}
	return root, nil
}

// Restore rebuilds a run from a previously saved assessment result and
// re-enters the last recorded node.
func (e *Engine) Restore(ctx context.Context, assessmentID string, saved *domain.Result, controller ports.RootNodeController) (ports.RootNodeState, error) {
	if saved == nil {
		return nil, fmt.Errorf("a saved result is required to restore a run")
	}
	root, err := e.prepare(ctx, assessmentID, controller, saved)
	if err != nil {
		return nil, err
	}
	if err := root.Resume(ctx); err != nil {
		return nil, err
	}
	return root, nil
}

func (e *Engine) prepare(ctx context.Context, assessmentID string, controller ports.RootNodeController, saved *domain.Result) (*runtime.AssessmentState, error) {
	node, err := e.loader.Load(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assessment %s: %w", assessmentID, err)
	}

	root, err := runtime.NewAssessmentState(node, runtime.Config{
		Controller:       controller,
		StateFactory:     e.stateFactory,
		NavigatorFactory: e.navFactory,
		Hooks:            e.hooks,
		Logger:           e.logger,
		Result:           saved,
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("run started", "assessment", assessmentID, "run_id", root.RunID())
	return root, nil
}

// List returns the identifiers of the assessments the loader can resolve.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	return e.loader.List(ctx)
}

// Load resolves an assessment tree without starting a run. Useful for
// inspection and host-side prefetching.
func (e *Engine) Load(ctx context.Context, assessmentID string) (*domain.Node, error) {
	return e.loader.Load(ctx, assessmentID)
}

// Validate resolves an assessment and reports its structural problems.
// Loaders validate on load, so this surfaces the same aggregate a run
// would trip over, without starting one.
func (e *Engine) Validate(ctx context.Context, assessmentID string) error {
	if _, err := e.loader.Load(ctx, assessmentID); err != nil {
		return fmt.Errorf("validating assessment %q: %w", assessmentID, err)
	}
	return nil
}
