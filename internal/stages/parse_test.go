package stages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPlain(t *testing.T) {
	out, err := extractJSON(`{"a": 1}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, out)
}

func TestExtractJSONEmbeddedInProse(t *testing.T) {
	out, err := extractJSON("Sure, here is the plan:\n{\"queries\": [\"x\"]}\nHope that helps!")
	require.NoError(t, err)
	assert.Equal(t, `{"queries": ["x"]}`, out)
}

func TestExtractJSONCodeFenced(t *testing.T) {
	out, err := extractJSON("```json\n{\"positions\": [1]}\n```")
	require.NoError(t, err)
	assert.Equal(t, `{"positions": [1]}`, out)
}

func TestExtractJSONNoObject(t *testing.T) {
	_, err := extractJSON("I could not produce any output.")
	assert.Error(t, err)
}

func TestParseQueryListDropsBlanks(t *testing.T) {
	queries, err := parseQueryList(`{"queries": ["one", "  ", "", "two "]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, queries)
}

func TestParseQueryListMalformed(t *testing.T) {
	_, err := parseQueryList(`{"queries": "not a list"}`)
	assert.Error(t, err)
}

func TestParseEvaluation(t *testing.T) {
	isComplete, followUps, err := parseEvaluation(`{"is_complete": false, "follow_up_queries": ["gap one", "gap two"]}`)
	require.NoError(t, err)
	assert.False(t, isComplete)
	assert.Equal(t, []string{"gap one", "gap two"}, followUps)
}

func TestParseEvaluationComplete(t *testing.T) {
	isComplete, followUps, err := parseEvaluation("```\n{\"is_complete\": true, \"follow_up_queries\": []}\n```")
	require.NoError(t, err)
	assert.True(t, isComplete)
	assert.Empty(t, followUps)
}

func TestParsePositions(t *testing.T) {
	positions, err := parsePositions(`{"positions": [3, 1, 7]}`)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 7}, positions)
}

func TestParsePositionsMalformed(t *testing.T) {
	_, err := parsePositions(`{"positions": ["first"]}`)
	assert.Error(t, err)
}
