package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BiAffectBridge/cairn"
	"github.com/BiAffectBridge/cairn/pkg/adapters/memory"
	"github.com/BiAffectBridge/cairn/pkg/domain"
)

func testEngine(t *testing.T) *cairn.Engine {
	t.Helper()
	loader, err := memory.NewLoader(&domain.Node{
		Identifier: "daily",
		Kind:       domain.NodeAssessment,
		Version:    "1.0",
		Children: []*domain.Node{
			{Identifier: "intro", Kind: domain.NodeOverview, Title: "Daily Survey"},
			{Identifier: "mood", Kind: domain.NodeQuestion, Title: "How is your mood?", InputOptions: []string{"good", "bad"}},
			{Identifier: "done", Kind: domain.NodeCompletion, Title: "All done"},
		},
	})
	require.NoError(t, err)
	engine, err := cairn.New(loader)
	require.NoError(t, err)
	return engine
}

func scriptedRunner(input string) (*Runner, *bytes.Buffer) {
	out := &bytes.Buffer{}
	r := NewRunner()
	r.Input = strings.NewReader(input)
	r.Output = out
	return r, out
}

func TestRunToCompletion(t *testing.T) {
	engine := testEngine(t)
	r, out := scriptedRunner("\ngood\n\n\n")

	result, err := r.Run(context.Background(), engine, "daily")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Contains(t, out.String(), "Daily Survey")
	assert.Contains(t, out.String(), "1) good")
	assert.Contains(t, out.String(), "Assessment complete")

	mood := result.LastResult("mood")
	require.NotNil(t, mood)
	assert.Equal(t, "good", mood.Answer)
	assert.False(t, result.EndedAt.IsZero())
}

func TestAnswerRequiredReprompts(t *testing.T) {
	engine := testEngine(t)
	// Empty answer on the question re-prompts instead of erroring.
	r, out := scriptedRunner("\n\ngood\n\n\n")

	_, err := r.Run(context.Background(), engine, "daily")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "An answer is required.")
}

func TestBackCommand(t *testing.T) {
	engine := testEngine(t)
	r, out := scriptedRunner("\nback\nback\n\ngood\n\n\n")

	result, err := r.Run(context.Background(), engine, "daily")
	require.NoError(t, err)

	// Second "back" lands on the first node and is refused politely.
	assert.Contains(t, out.String(), "Already at the first step.")
	assert.Contains(t, out.String(), "Assessment complete")
	assert.NotNil(t, result.LastResult("mood"))
}

func TestExitCommand(t *testing.T) {
	engine := testEngine(t)
	store := memory.NewStore()
	r, out := scriptedRunner("exit\n")
	r.Store = store

	result, err := r.Run(context.Background(), engine, "daily")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Assessment ended early.")

	// An abandoned run is not persisted.
	_, err = store.Load(context.Background(), result.RunID)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestSaveCommandPersistsAndResumes(t *testing.T) {
	ctx := context.Background()
	engine := testEngine(t)
	store := memory.NewStore()

	r, out := scriptedRunner("\nsave\n")
	r.Store = store
	result, err := r.Run(ctx, engine, "daily")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Progress saved.")

	saved, err := store.Load(ctx, result.RunID)
	require.NoError(t, err)

	// Resume lands back on the question and the run can finish.
	r2, out2 := scriptedRunner("good\n\n\n")
	r2.Store = store
	resumed, err := r2.Resume(ctx, engine, "daily", saved)
	require.NoError(t, err)

	assert.Equal(t, result.RunID, resumed.RunID)
	assert.Contains(t, out2.String(), "How is your mood?")
	assert.Contains(t, out2.String(), "Assessment complete")
}

func TestInputExhaustionAbandonsRun(t *testing.T) {
	engine := testEngine(t)
	r, out := scriptedRunner("")

	_, err := r.Run(context.Background(), engine, "daily")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Assessment ended early.")
}
