package cairn_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BiAffectBridge/cairn"
	"github.com/BiAffectBridge/cairn/pkg/adapters/memory"
	"github.com/BiAffectBridge/cairn/pkg/domain"
	"github.com/BiAffectBridge/cairn/pkg/ports"
)

// hostController records hand-offs the way an embedding UI would.
type hostController struct {
	current  ports.NodeState
	finished bool
	reason   domain.FinishedReason
}

func (c *hostController) CanHandle(node *domain.Node) bool { return !node.IsContainer() }
func (c *hostController) CustomNodeStateFor(node *domain.Node, parent ports.BranchNodeState) ports.NodeState {
	return nil
}
func (c *hostController) HandleGoForward(ctx context.Context, state ports.NodeState, req *domain.TransitionRequest) error {
	c.current = state
	return nil
}
func (c *hostController) HandleGoBack(ctx context.Context, state ports.NodeState, req *domain.TransitionRequest) error {
	c.current = state
	return nil
}
func (c *hostController) HandleFinished(ctx context.Context, reason domain.FinishedReason, state ports.NodeState, cause error) {
	c.finished = true
	c.reason = reason
}

func demoAssessment() *domain.Node {
	return &domain.Node{
		Identifier: "daily",
		Kind:       domain.NodeAssessment,
		Version:    "1.0",
		Children: []*domain.Node{
			{Identifier: "intro", Kind: domain.NodeOverview},
			{
				Identifier: "symptoms",
				Kind:       domain.NodeSection,
				Children: []*domain.Node{
					{Identifier: "mood", Kind: domain.NodeQuestion},
					{Identifier: "sleep", Kind: domain.NodeQuestion, Optional: true},
				},
			},
			{Identifier: "done", Kind: domain.NodeCompletion},
		},
	}
}

func TestEngineRequiresLoader(t *testing.T) {
	_, err := cairn.New(nil)
	assert.Error(t, err)
}

func TestEngineRunLifecycle(t *testing.T) {
	ctx := context.Background()
	loader, err := memory.NewLoader(demoAssessment())
	require.NoError(t, err)
	engine, err := cairn.New(loader)
	require.NoError(t, err)

	ctrl := &hostController{}
	root, err := engine.Start(ctx, "daily", ctrl)
	require.NoError(t, err)
	require.NotEmpty(t, root.RunID())
	assert.Equal(t, "intro", ctrl.current.Node().Identifier)

	// Walk the whole assessment, descending through the section.
	require.NoError(t, ctrl.current.GoForward(ctx, nil))
	assert.Equal(t, "mood", ctrl.current.Node().Identifier)

	q := ctrl.current.(ports.QuestionState)
	q.SetAnswer("good")
	require.NoError(t, q.GoForward(ctx, nil))
	assert.Equal(t, "sleep", ctrl.current.Node().Identifier)

	require.NoError(t, ctrl.current.GoForward(ctx, nil))
	assert.Equal(t, "done", ctrl.current.Node().Identifier)

	require.NoError(t, ctrl.current.GoForward(ctx, nil))
	assert.True(t, ctrl.finished)
	assert.Equal(t, domain.ReasonComplete, ctrl.reason)

	// The result tree mirrors the traversal.
	section := root.Result().LastResult("symptoms")
	require.NotNil(t, section)
	mood := section.LastResult("mood")
	require.NotNil(t, mood)
	assert.Equal(t, "good", mood.Answer)
}

func TestEngineRestore(t *testing.T) {
	ctx := context.Background()
	loader, err := memory.NewLoader(demoAssessment())
	require.NoError(t, err)
	engine, err := cairn.New(loader)
	require.NoError(t, err)

	ctrl := &hostController{}
	root, err := engine.Start(ctx, "daily", ctrl)
	require.NoError(t, err)
	require.NoError(t, ctrl.current.GoForward(ctx, nil)) // mood
	require.NoError(t, root.Close(ctx, domain.ReasonSaveProgress))

	saved := root.Result().Clone()

	ctrl2 := &hostController{}
	restored, err := engine.Restore(ctx, "daily", saved, ctrl2)
	require.NoError(t, err)
	assert.Equal(t, root.RunID(), restored.RunID())
	assert.Equal(t, "mood", ctrl2.current.Node().Identifier)

	_, err = engine.Restore(ctx, "daily", nil, ctrl2)
	assert.Error(t, err)
}

func TestEngineListAndLoad(t *testing.T) {
	ctx := context.Background()
	loader, err := memory.NewLoader(demoAssessment())
	require.NoError(t, err)
	engine, err := cairn.New(loader)
	require.NoError(t, err)

	ids, err := engine.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"daily"}, ids)

	node, err := engine.Load(ctx, "daily")
	require.NoError(t, err)
	assert.Equal(t, "daily", node.Identifier)

	_, err = engine.Start(ctx, "ghost", &hostController{})
	assert.ErrorIs(t, err, domain.ErrAssessmentNotFound)
}

func TestLifecycleHookOption(t *testing.T) {
	ctx := context.Background()
	loader, err := memory.NewLoader(demoAssessment())
	require.NoError(t, err)

	var entered []string
	engine, err := cairn.New(loader, cairn.WithLifecycleHooks(domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) { entered = append(entered, e.NodeID) },
	}))
	require.NoError(t, err)

	ctrl := &hostController{}
	_, err = engine.Start(ctx, "daily", ctrl)
	require.NoError(t, err)
	assert.Equal(t, []string{"intro"}, entered)
}
