package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BiAffectBridge/cairn/pkg/domain"
)

const sampleJSON = `{
	"identifier": "daily_survey",
	"type": "assessment",
	"version": "1.2",
	"progress_markers": ["mood", "sleep"],
	"async_actions": [
		{"identifier": "motion", "type": "motion", "stop_step": "mood", "permissions": ["motion_sensor"]}
	],
	"children": [
		{"identifier": "overview", "type": "overview", "title": "Daily Survey"},
		{
			"identifier": "mood",
			"type": "question",
			"title": "How is your mood?",
			"input_type": "choice",
			"input_options": ["good", "bad"]
		},
		{"identifier": "sleep", "type": "question", "optional": true, "next_node": "exit"},
		{"identifier": "done", "type": "completion"}
	]
}`

const sampleYAML = `
identifier: daily_survey
type: assessment
version: "1.2"
children:
  - identifier: overview
    type: overview
    title: Daily Survey
  - identifier: mood
    type: question
    input_type: choice
    input_options: [good, bad]
  - identifier: done
    type: completion
`

func TestParseJSON(t *testing.T) {
	node, err := NewParser().ParseJSON([]byte(sampleJSON))
	require.NoError(t, err)

	assert.Equal(t, "daily_survey", node.Identifier)
	assert.Equal(t, domain.NodeAssessment, node.Kind)
	assert.Equal(t, "1.2", node.Version)
	require.Len(t, node.Children, 4)

	mood := node.Child("mood")
	require.NotNil(t, mood)
	assert.Equal(t, domain.NodeQuestion, mood.Kind)
	assert.Equal(t, []string{"good", "bad"}, mood.InputOptions)

	sleep := node.Child("sleep")
	require.NotNil(t, sleep)
	assert.True(t, sleep.Optional)
	assert.Equal(t, domain.ExitIdentifier, sleep.NextNodeIdentifier)

	require.Len(t, node.AsyncActions, 1)
	assert.Equal(t, "mood", node.AsyncActions[0].StopStepIdentifier)
	assert.Equal(t, []string{"motion_sensor"}, node.AsyncActions[0].Permissions)
}

func TestParseYAML(t *testing.T) {
	node, err := NewParser().ParseYAML([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "daily_survey", node.Identifier)
	require.Len(t, node.Children, 3)
	assert.Equal(t, domain.NodeOverview, node.Children[0].Kind)
	assert.Equal(t, "Daily Survey", node.Children[0].Title)
}

func TestParseDefaults(t *testing.T) {
	doc := `{
		"identifier": "quick",
		"children": [
			{"identifier": "leaf"},
			{"identifier": "group", "children": [{"identifier": "inner"}]}
		]
	}`
	node, err := NewParser().ParseJSON([]byte(doc))
	require.NoError(t, err)

	// Root defaults to assessment, leaves to instruction, containers to
	// section.
	assert.Equal(t, domain.NodeAssessment, node.Kind)
	assert.Equal(t, domain.NodeInstruction, node.Child("leaf").Kind)
	assert.Equal(t, domain.NodeSection, node.Child("group").Kind)
	assert.Equal(t, domain.NodeInstruction, node.Child("group").Child("inner").Kind)
}

func TestParseErrors(t *testing.T) {
	p := NewParser()

	t.Run("malformed json", func(t *testing.T) {
		_, err := p.ParseJSON([]byte(`{`))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := p.ParseYAML([]byte("\t:bad"))
		assert.Error(t, err)
	})

	t.Run("missing identifier", func(t *testing.T) {
		_, err := p.ParseJSON([]byte(`{"type": "assessment"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "identifier")
	})

	t.Run("unknown node type", func(t *testing.T) {
		_, err := p.ParseJSON([]byte(`{"identifier": "a", "type": "carousel"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "carousel")
	})

	t.Run("child missing identifier", func(t *testing.T) {
		_, err := p.ParseJSON([]byte(`{"identifier": "a", "children": [{"type": "instruction"}]}`))
		assert.Error(t, err)
	})

	t.Run("structural validation runs", func(t *testing.T) {
		doc := `{
			"identifier": "a",
			"children": [
				{"identifier": "x"},
				{"identifier": "x"}
			]
		}`
		_, err := p.ParseJSON([]byte(doc))
		assert.Error(t, err)
	})
}
