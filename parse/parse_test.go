package parse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_PureJSON(t *testing.T) {
	inst, err := Extract(`{"function":"open_url","parameters":{"url":"http://example.com"},"human_readable_justification":"Opening the site"}`)
	require.NoError(t, err)
	assert.Equal(t, "open_url", inst.Function)
	assert.Equal(t, "http://example.com", inst.Parameters["url"])
	assert.Equal(t, "Opening the site", inst.Justification)
}

func TestExtract_SurroundingProse(t *testing.T) {
	inst, err := Extract(`Sure! {"function":"sleep","parameters":{"secs":2}} Done.`)
	require.NoError(t, err)
	assert.Equal(t, "sleep", inst.Function)
	assert.Equal(t, float64(2), inst.Parameters["secs"])
}

func TestExtract_MultilineReply(t *testing.T) {
	text := "Here is what I will do next:\n\n" +
		"{\n  \"function\": \"write\",\n  \"parameters\": {\"text\": \"hello world\"}\n}\n\n" +
		"Let me know how it goes."
	inst, err := Extract(text)
	require.NoError(t, err)
	assert.Equal(t, "write", inst.Function)
	assert.Equal(t, "hello world", inst.Parameters["text"])
}

func TestExtract_NoBraces(t *testing.T) {
	_, err := Extract("I cannot help with that.")
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestExtract_OnlyOpeningBrace(t *testing.T) {
	_, err := Extract("here is a stray { without a close")
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestExtract_BracesOutOfOrder(t *testing.T) {
	_, err := Extract("} backwards {")
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestExtract_MalformedObject(t *testing.T) {
	_, err := Extract(`reply: {"function": "sleep", "parameters": } trailing`)
	var malformed *MalformedJSONError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Raw, `"function"`)
}

// Two independent objects in one reply make the outermost span undecodable.
// This over-capture is a documented limitation of the first-brace/last-brace
// strategy, not a bug; the test pins the behavior down.
func TestExtract_MultipleObjectsKnownLimitation(t *testing.T) {
	_, err := Extract(`{"function":"sleep"} and also {"function":"done"}`)
	var malformed *MalformedJSONError
	assert.ErrorAs(t, err, &malformed)
}

func TestExtract_NestedParameters(t *testing.T) {
	inst, err := Extract(`prose {"function":"click","parameters":{"x":10,"y":20,"button":"left"}} more prose`)
	require.NoError(t, err)
	assert.Equal(t, "click", inst.Function)
	assert.Equal(t, float64(10), inst.Parameters["x"])
}

func TestExtract_EmptyObjectMeansDone(t *testing.T) {
	inst, err := Extract("Nothing left to do. {}")
	require.NoError(t, err)
	assert.True(t, inst.IsDone())
}

func TestExtract_NeverPanics(t *testing.T) {
	for _, text := range []string{"", "{", "}", "{}", "{{{}}}", "no braces at all", "{\"function\":1}"} {
		_, err := Extract(text)
		if err != nil {
			assert.True(t, errors.Is(err, ErrNoJSON) || func() bool {
				var m *MalformedJSONError
				return errors.As(err, &m)
			}(), "unexpected error kind for %q: %v", text, err)
		}
	}
}
