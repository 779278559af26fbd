package approval

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bashRequest(id, session, command string) Request {
	return Request{
		ID:         id,
		SessionID:  session,
		ToolName:   "Bash",
		ToolInput:  map[string]any{"command": command},
		ReceivedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestResolveCarriesRequestIDAndInput(t *testing.T) {
	c := NewCorrelator()
	c.Open(bashRequest("r1", "s1", "npm test"))

	resp, err := c.Resolve("r1", "s1", Allow, "Bash:npm")
	require.NoError(t, err)
	assert.Equal(t, "approval_response", resp.Type)
	assert.Equal(t, "r1", resp.RequestID)
	assert.Equal(t, "s1", resp.AgentID)
	assert.Equal(t, Allow, resp.Decision)
	assert.Equal(t, "Bash:npm", resp.Pattern)
	assert.Equal(t, map[string]any{"command": "npm test"}, resp.ToolInput)

	_, ok := c.Active("s1")
	assert.False(t, ok)
}

func TestDenyDropsPattern(t *testing.T) {
	c := NewCorrelator()
	c.Open(bashRequest("r1", "s1", "rm -rf build"))

	resp, err := c.Resolve("r1", "s1", Deny, "Bash:rm")
	require.NoError(t, err)
	assert.Equal(t, Deny, resp.Decision)
	assert.Empty(t, resp.Pattern)
}

func TestResolveUnknownRequest(t *testing.T) {
	c := NewCorrelator()
	c.Open(bashRequest("r1", "s1", "ls"))

	_, err := c.Resolve("r2", "s1", Allow, "")
	assert.True(t, errors.Is(err, ErrUnknownRequest))
	_, err = c.Resolve("r1", "s2", Allow, "")
	assert.True(t, errors.Is(err, ErrUnknownRequest))

	// still active after the failed attempts
	_, ok := c.Active("s1")
	assert.True(t, ok)
}

func TestOpenSupersedes(t *testing.T) {
	c := NewCorrelator()
	assert.Nil(t, c.Open(bashRequest("r1", "s1", "ls")))
	prev := c.Open(bashRequest("r2", "s1", "pwd"))
	require.NotNil(t, prev)
	assert.Equal(t, "r1", prev.ID)

	_, err := c.Resolve("r1", "s1", Allow, "")
	assert.ErrorIs(t, err, ErrUnknownRequest)
	_, err = c.Resolve("r2", "s1", Allow, "")
	assert.NoError(t, err)
}

func TestOpenDerivesPreviewAndPattern(t *testing.T) {
	c := NewCorrelator()
	c.Open(bashRequest("r1", "s1", "git status --short"))

	req, ok := c.Active("s1")
	require.True(t, ok)
	assert.Equal(t, "git status --short", req.CommandPreview)
	assert.Equal(t, "Bash:git", req.Pattern)
}

func TestDropAndRekey(t *testing.T) {
	c := NewCorrelator()
	c.Open(bashRequest("r1", "pending-1", "ls"))
	c.Rekey("pending-1", "abc")

	req, ok := c.Find("r1")
	require.True(t, ok)
	assert.Equal(t, "abc", req.SessionID)

	assert.True(t, c.DropSession("abc"))
	assert.False(t, c.DropSession("abc"))
	assert.Equal(t, 0, c.Len())
}

func TestListOrdersByArrival(t *testing.T) {
	c := NewCorrelator()
	late := bashRequest("r2", "s2", "ls")
	late.ReceivedAt = late.ReceivedAt.Add(time.Minute)
	c.Open(late)
	c.Open(bashRequest("r1", "s1", "ls"))

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "r1", list[0].ID)
	assert.Equal(t, "r2", list[1].ID)
}

func TestPatternFor(t *testing.T) {
	cases := []struct {
		tool    string
		command string
		want    string
	}{
		{"Bash", "npm install express", "Bash:npm"},
		{"Bash", "./run.sh --fast", "Bash:./"},
		{"Bash", "/usr/bin/python script.py", "Bash:python"},
		{"Bash", "/ foo", "Bash:/"},
		{"Bash", "", "Bash:"},
		{"Edit", "", "Edit"},
	}
	for _, tc := range cases {
		t.Run(tc.tool+" "+tc.command, func(t *testing.T) {
			assert.Equal(t, tc.want, PatternFor(tc.tool, map[string]any{"command": tc.command}))
		})
	}
}

func TestPreviewFor(t *testing.T) {
	assert.Equal(t, "make", PreviewFor("Bash", map[string]any{"command": "make"}))
	assert.Equal(t, "a.go", PreviewFor("Edit", map[string]any{"file_path": "a.go"}))
	assert.Equal(t, "b.go", PreviewFor("Write", map[string]any{"filePath": "b.go"}))
	assert.Empty(t, PreviewFor("Read", map[string]any{"file_path": "c.go"}))
	assert.Empty(t, PreviewFor("Bash", "not a map"))
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("deny")
	require.NoError(t, err)
	assert.Equal(t, Deny, d)
	_, err = ParseDecision("maybe")
	assert.Error(t, err)
}
