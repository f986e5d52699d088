package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BiAffectBridge/cairn/pkg/domain"
	"github.com/BiAffectBridge/cairn/pkg/ports"
)

// recordingController captures every hand-off so tests can assert on the
// traversal without a real UI.
type recordingController struct {
	current  ports.NodeState
	pending  *domain.TransitionRequest
	shown    []string
	backs    []string
	finished int
	reason   domain.FinishedReason
	cause    error
}

func (c *recordingController) CanHandle(node *domain.Node) bool {
	return !node.IsContainer()
}

func (c *recordingController) CustomNodeStateFor(node *domain.Node, parent ports.BranchNodeState) ports.NodeState {
	return nil
}

func (c *recordingController) HandleGoForward(ctx context.Context, state ports.NodeState, req *domain.TransitionRequest) error {
	c.current = state
	c.pending = req
	c.shown = append(c.shown, state.Node().Identifier)
	return nil
}

func (c *recordingController) HandleGoBack(ctx context.Context, state ports.NodeState, req *domain.TransitionRequest) error {
	c.current = state
	c.pending = req
	c.backs = append(c.backs, state.Node().Identifier)
	return nil
}

func (c *recordingController) HandleFinished(ctx context.Context, reason domain.FinishedReason, state ports.NodeState, cause error) {
	c.finished++
	c.reason = reason
	c.cause = cause
}

func assessment(id string, children ...*domain.Node) *domain.Node {
	return &domain.Node{Identifier: id, Kind: domain.NodeAssessment, Version: "1.0", Children: children}
}

func startRun(t *testing.T, node *domain.Node) (*AssessmentState, *recordingController) {
	t.Helper()
	ctrl := &recordingController{}
	root, err := NewAssessmentState(node, Config{Controller: ctrl})
	require.NoError(t, err)
	require.NoError(t, root.GoForward(context.Background(), nil))
	return root, ctrl
}

func TestNewAssessmentState(t *testing.T) {
	t.Run("requires a container", func(t *testing.T) {
		_, err := NewAssessmentState(instruction("a"), Config{Controller: &recordingController{}})
		require.Error(t, err)
		assert.True(t, domain.IsConfigurationError(err))
	})

	t.Run("requires a controller", func(t *testing.T) {
		_, err := NewAssessmentState(assessment("test", instruction("a")), Config{})
		require.Error(t, err)
	})

	t.Run("assigns a run id", func(t *testing.T) {
		root, err := NewAssessmentState(assessment("test", instruction("a")), Config{Controller: &recordingController{}})
		require.NoError(t, err)
		assert.NotEmpty(t, root.RunID())
	})
}

func TestLinearTraversal(t *testing.T) {
	ctx := context.Background()
	root, ctrl := startRun(t, assessment("test",
		instruction("intro"),
		instruction("middle"),
		&domain.Node{Identifier: "done", Kind: domain.NodeCompletion},
	))

	assert.Equal(t, "intro", ctrl.current.Node().Identifier)

	require.NoError(t, ctrl.current.GoForward(ctx, nil))
	require.NoError(t, ctrl.current.GoForward(ctx, nil))
	assert.Equal(t, []string{"intro", "middle", "done"}, ctrl.shown)
	assert.Zero(t, ctrl.finished)

	// Stepping past the last node completes the run.
	require.NoError(t, ctrl.current.GoForward(ctx, nil))
	assert.Equal(t, 1, ctrl.finished)
	assert.Equal(t, domain.ReasonComplete, ctrl.reason)
	assert.False(t, root.Result().EndedAt.IsZero())

	// The terminal transition fires exactly once.
	assert.ErrorIs(t, ctrl.current.GoForward(ctx, nil), domain.ErrRunFinished)
	assert.Equal(t, 1, ctrl.finished)
}

func TestQuestionAnswerRequired(t *testing.T) {
	ctx := context.Background()
	q := question("mood")
	_, ctrl := startRun(t, assessment("test", q, instruction("done")))

	qs, ok := ctrl.current.(ports.QuestionState)
	require.True(t, ok)

	assert.ErrorIs(t, qs.GoForward(ctx, nil), domain.ErrAnswerRequired)
	assert.Equal(t, []string{"mood"}, ctrl.shown)

	qs.SetAnswer("good")
	require.NoError(t, qs.GoForward(ctx, nil))
	assert.Equal(t, "done", ctrl.current.Node().Identifier)
}

func TestOptionalQuestionSkips(t *testing.T) {
	ctx := context.Background()
	q := question("mood")
	q.Optional = true
	_, ctrl := startRun(t, assessment("test", q, instruction("done")))

	require.NoError(t, ctrl.current.GoForward(ctx, nil))
	assert.Equal(t, "done", ctrl.current.Node().Identifier)
}

func TestBackNavigation(t *testing.T) {
	ctx := context.Background()
	root, ctrl := startRun(t, assessment("test",
		question("a"),
		instruction("b"),
	))

	qs := ctrl.current.(ports.QuestionState)
	qs.SetAnswer(42)
	require.NoError(t, qs.GoForward(ctx, nil))
	assert.Equal(t, "b", ctrl.current.Node().Identifier)

	require.NoError(t, ctrl.current.GoBackward(ctx, nil))
	assert.Equal(t, []string{"a"}, ctrl.backs)

	// The re-entered question keeps its recorded answer.
	qs, ok := ctrl.current.(ports.QuestionState)
	require.True(t, ok)
	assert.Equal(t, 42, qs.Answer())

	// The transition log records the backward entry.
	path := root.Result().Path
	require.Len(t, path, 3)
	assert.Equal(t, domain.PathMarker{Identifier: "a", Direction: domain.DirectionBackward}, path[2])

	// Nothing earlier than the first node.
	assert.ErrorIs(t, ctrl.current.GoBackward(ctx, nil), domain.ErrNoPreviousNode)
	assert.Zero(t, ctrl.finished)

	// The run is still live and can move forward again.
	require.NoError(t, ctrl.current.GoForward(ctx, nil))
	assert.Equal(t, "b", ctrl.current.Node().Identifier)
}

func TestSectionTraversal(t *testing.T) {
	ctx := context.Background()
	root, ctrl := startRun(t, assessment("test",
		instruction("intro"),
		container("s", instruction("x"), instruction("y")),
		instruction("end"),
	))

	require.NoError(t, ctrl.current.GoForward(ctx, nil)) // into section: x
	require.NoError(t, ctrl.current.GoForward(ctx, nil)) // y
	require.NoError(t, ctrl.current.GoForward(ctx, nil)) // out of section: end
	assert.Equal(t, []string{"intro", "x", "y", "end"}, ctrl.shown)

	// The section owns a branch result with its own traversal log.
	section := root.Result().LastResult("s")
	require.NotNil(t, section)
	assert.True(t, section.IsBranch())
	assert.Len(t, section.PathHistory, 2)

	// Back across the section boundary resumes at its last visited node.
	require.NoError(t, ctrl.current.GoBackward(ctx, nil))
	assert.Equal(t, "y", ctrl.current.Node().Identifier)

	require.NoError(t, ctrl.current.GoBackward(ctx, nil))
	assert.Equal(t, "x", ctrl.current.Node().Identifier)

	// And out the front of the section.
	require.NoError(t, ctrl.current.GoBackward(ctx, nil))
	assert.Equal(t, "intro", ctrl.current.Node().Identifier)

	assert.ErrorIs(t, ctrl.current.GoBackward(ctx, nil), domain.ErrNoPreviousNode)
}

func TestRuleJumpBackwardDelivery(t *testing.T) {
	ctx := context.Background()
	c := instruction("c")
	c.NextNodeIdentifier = "a"
	_, ctrl := startRun(t, assessment("test", instruction("a"), instruction("b"), c))

	require.NoError(t, ctrl.current.GoForward(ctx, nil))
	require.NoError(t, ctrl.current.GoForward(ctx, nil))
	assert.Equal(t, "c", ctrl.current.Node().Identifier)

	// The jump targets an earlier node, so it is delivered as a back
	// transition even though the participant pressed forward.
	require.NoError(t, ctrl.current.GoForward(ctx, nil))
	assert.Equal(t, []string{"a"}, ctrl.backs)
}

func TestEarlyExitRule(t *testing.T) {
	ctx := context.Background()
	q := question("screener")
	q.Optional = true
	root, ctrl := startRun(t, assessment("test", q, instruction("rest")))

	qs := ctrl.current.(ports.QuestionState)
	qs.SetAnswer("ineligible")
	qs.Result().NextNodeIdentifier = domain.ExitIdentifier

	require.NoError(t, qs.GoForward(ctx, nil))
	assert.Equal(t, 1, ctrl.finished)
	assert.Equal(t, domain.ReasonEarlyExit, ctrl.reason)
	assert.False(t, root.Result().EndedAt.IsZero())
}

func TestClose(t *testing.T) {
	ctx := context.Background()

	t.Run("save progress", func(t *testing.T) {
		root, ctrl := startRun(t, assessment("test", question("a"), instruction("b")))
		require.NoError(t, root.Close(ctx, domain.ReasonSaveProgress))
		assert.Equal(t, domain.ReasonSaveProgress, ctrl.reason)
		assert.False(t, root.Result().EndedAt.IsZero())
		// The interrupted node is recorded so a restore can resume there.
		assert.NotNil(t, root.Result().LastResult("a"))
	})

	t.Run("discard", func(t *testing.T) {
		root, ctrl := startRun(t, assessment("test", question("a")))
		require.NoError(t, root.Close(ctx, domain.ReasonDiscarded))
		assert.Equal(t, domain.ReasonDiscarded, ctrl.reason)
	})

	t.Run("close twice fails", func(t *testing.T) {
		root, _ := startRun(t, assessment("test", question("a")))
		require.NoError(t, root.Close(ctx, domain.ReasonEarlyExit))
		assert.ErrorIs(t, root.Close(ctx, domain.ReasonEarlyExit), domain.ErrRunFinished)
	})
}

func TestResume(t *testing.T) {
	ctx := context.Background()
	def := assessment("test", question("a"), question("b"), instruction("done"))

	// First session: answer a, stop on b.
	root, ctrl := startRun(t, def)
	ctrl.current.(ports.QuestionState).SetAnswer("first")
	require.NoError(t, ctrl.current.GoForward(ctx, nil))
	require.NoError(t, root.Close(ctx, domain.ReasonSaveProgress))
	saved := root.Result().Clone()

	// Second session restores from the saved result.
	ctrl2 := &recordingController{}
	restored, err := NewAssessmentState(def, Config{Controller: ctrl2, Result: saved})
	require.NoError(t, err)
	require.NoError(t, restored.Resume(ctx))

	assert.Equal(t, root.RunID(), restored.RunID())
	assert.Equal(t, "b", ctrl2.current.Node().Identifier)

	// The earlier answer survived the round trip.
	require.NoError(t, ctrl2.current.GoBackward(ctx, nil))
	assert.Equal(t, "first", ctrl2.current.(ports.QuestionState).Answer())
}

func TestRestoreRejectsNonBranchResult(t *testing.T) {
	_, err := NewAssessmentState(
		assessment("test", instruction("a")),
		Config{Controller: &recordingController{}, Result: domain.NewAnswerResult("x")},
	)
	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestAsyncActionRequests(t *testing.T) {
	ctx := context.Background()
	def := assessment("test", instruction("a"), instruction("b"))
	def.AsyncActions = []domain.AsyncActionConfig{
		{Identifier: "motion", Type: "motion", StartStepIdentifier: "a", StopStepIdentifier: "a", Permissions: []string{"motion_sensor"}},
	}
	_, ctrl := startRun(t, def)

	// Entering the anchored step carries the start request and its
	// permissions.
	require.NotNil(t, ctrl.pending)
	require.Len(t, ctrl.pending.AsyncActions.Start, 1)
	assert.Equal(t, "motion", ctrl.pending.AsyncActions.Start[0].Identifier)
	assert.Equal(t, []string{"motion_sensor"}, ctrl.pending.Permissions)

	// Leaving it carries the stop request.
	require.NoError(t, ctrl.current.GoForward(ctx, nil))
	require.NotNil(t, ctrl.pending)
	require.Len(t, ctrl.pending.AsyncActions.Stop, 1)
	assert.Equal(t, "motion", ctrl.pending.AsyncActions.Stop[0].Identifier)
}

func TestSectionAsyncStopEscalates(t *testing.T) {
	ctx := context.Background()
	section := container("s", instruction("x"))
	section.AsyncActions = []domain.AsyncActionConfig{
		{Identifier: "audio", Type: "microphone"},
	}
	_, ctrl := startRun(t, assessment("test", section, instruction("end")))

	assert.Equal(t, "x", ctrl.current.Node().Identifier)

	// Exhausting the section surfaces the pending stop on the next
	// hand-off rather than dropping it at the boundary.
	require.NoError(t, ctrl.current.GoForward(ctx, nil))
	assert.Equal(t, "end", ctrl.current.Node().Identifier)
	require.NotNil(t, ctrl.pending)
	require.Len(t, ctrl.pending.AsyncActions.Stop, 1)
	assert.Equal(t, "audio", ctrl.pending.AsyncActions.Stop[0].Identifier)
}

func TestSetAsyncResult(t *testing.T) {
	root, _ := startRun(t, assessment("test", instruction("a")))

	recorder := domain.NewResult("motion_recording")
	root.SetAsyncResult(recorder)
	require.NotNil(t, root.Result().Children)
	assert.Same(t, recorder, root.Result().Children["motion_recording"])
}

func TestCustomStateFactory(t *testing.T) {
	calls := 0
	factory := func(node *domain.Node, parent ports.BranchNodeState) ports.NodeState {
		if node.Kind != domain.NodeActive {
			return nil
		}
		calls++
		return &leafState{node: node, result: node.NewResult(), parent: parent}
	}

	ctrl := &recordingController{}
	active := &domain.Node{Identifier: "tap", Kind: domain.NodeActive}
	root, err := NewAssessmentState(assessment("test", active, instruction("done")), Config{
		Controller:   ctrl,
		StateFactory: factory,
	})
	require.NoError(t, err)
	require.NoError(t, root.GoForward(context.Background(), nil))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "tap", ctrl.current.Node().Identifier)
}

// refusingController cannot display anything; routing a leaf to it is a
// configuration error that ends the run.
type refusingController struct {
	recordingController
}

func (c *refusingController) CanHandle(node *domain.Node) bool { return false }

func TestUnhandleableLeafFinishesWithError(t *testing.T) {
	ctrl := &refusingController{}
	root, err := NewAssessmentState(assessment("test", instruction("a")), Config{Controller: ctrl})
	require.NoError(t, err)

	err = root.GoForward(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))
	assert.Equal(t, 1, ctrl.finished)
	assert.Equal(t, domain.ReasonError, ctrl.reason)
	assert.Error(t, ctrl.cause)
}

func TestLifecycleHooks(t *testing.T) {
	ctx := context.Background()
	var entered, left []string
	var finishes []domain.FinishedReason

	hooks := domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) { entered = append(entered, e.NodeID) },
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) { left = append(left, e.NodeID) },
		OnFinished:  func(_ context.Context, e *domain.FinishEvent) { finishes = append(finishes, e.Reason) },
	}

	ctrl := &recordingController{}
	root, err := NewAssessmentState(assessment("test", instruction("a"), instruction("b")), Config{
		Controller: ctrl,
		Hooks:      hooks,
	})
	require.NoError(t, err)

	require.NoError(t, root.GoForward(ctx, nil))
	require.NoError(t, ctrl.current.GoForward(ctx, nil))
	require.NoError(t, ctrl.current.GoForward(ctx, nil))

	assert.Equal(t, []string{"a", "b"}, entered)
	assert.Equal(t, []string{"a", "b"}, left)
	assert.Equal(t, []domain.FinishedReason{domain.ReasonComplete}, finishes)
}

func TestBranchProgressAndPeeks(t *testing.T) {
	def := assessment("test", instruction("a"), instruction("b"), instruction("c"))
	def.ProgressMarkers = []string{"a", "b", "c"}
	_, ctrl := startRun(t, def)

	parent := ctrl.current.Parent()
	require.NotNil(t, parent)

	p := parent.Progress()
	require.NotNil(t, p)
	assert.Equal(t, 0, p.Current)
	assert.Equal(t, 3, p.Total)

	assert.True(t, parent.HasNodeAfter())
	assert.False(t, parent.AllowBackNavigation())

	require.NoError(t, ctrl.current.GoForward(context.Background(), nil))
	assert.True(t, parent.AllowBackNavigation())
	p = parent.Progress()
	require.NotNil(t, p)
	assert.Equal(t, 1, p.Current)
}
