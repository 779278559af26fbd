package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInit(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"init","agent_id":"a1","project":"api","status":"idle","mode":"plan",
		"messages":[{"role":"user","content":"hi"}],"waiting_on_user":true}`))
	require.NoError(t, err)

	got, ok := ev.(Init)
	require.True(t, ok)
	assert.Equal(t, "a1", got.SessionID())
	assert.Equal(t, "api", got.Project)
	assert.Equal(t, "plan", got.Mode)
	assert.True(t, got.WaitingOnUser)
	assert.Equal(t, []InitMessage{{Role: "user", Content: "hi"}}, got.Messages)
}

func TestDecodePrefersSessionID(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"deleted","session_id":"s1","agent_id":"a1"}`))
	require.NoError(t, err)
	assert.Equal(t, "s1", ev.SessionID())
	assert.Equal(t, TypeDeleted, ev.Type())
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		frame string
		want  error
	}{
		{`{"agent_id":"a1"}`, ErrMissingType},
		{`{"type":"status","status":"idle"}`, ErrMissingSession},
		{`{"type":"status","agent_id":"a1"}`, ErrMalformed},
		{`{"type":"tool","agent_id":"a1"}`, ErrMalformed},
		{`{"type":"usage","agent_id":"a1"}`, ErrMalformed},
		{`{"type":"approval_request","agent_id":"a1","tool_name":"Bash"}`, ErrMalformed},
	}
	for _, tc := range cases {
		_, err := Decode([]byte(tc.frame))
		assert.True(t, errors.Is(err, tc.want), "%s: got %v", tc.frame, err)
	}

	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeErrorFrame(t *testing.T) {
	ev, err := Decode([]byte(`{"error":"Agent not found","agent_id":"a9"}`))
	require.NoError(t, err)
	e, ok := ev.(ErrorReported)
	require.True(t, ok)
	assert.Equal(t, "a9", e.SessionID())
	assert.Equal(t, "Agent not found", e.Message)
}

func TestDecodeUnknownType(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"heartbeat","agent_id":"a1"}`))
	require.NoError(t, err)
	u, ok := ev.(Unknown)
	require.True(t, ok)
	assert.Equal(t, Type("heartbeat"), u.Type())
}

func TestDecodeToolAndApproval(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"tool","agent_id":"a1","tool":{"name":"Read","input":{"file_path":"x.go"}}}`))
	require.NoError(t, err)
	tool := ev.(ToolUsed)
	assert.Equal(t, "Read", tool.Name)
	assert.Equal(t, map[string]any{"file_path": "x.go"}, tool.Input)

	ev, err = Decode([]byte(`{"type":"approval_request","request_id":"r1","agent_id":"a1","tool_name":"Bash",
		"tool_input":{"command":"ls"},"command_display":"ls","cwd":"/w","pattern":"Bash:ls"}`))
	require.NoError(t, err)
	req := ev.(ApprovalRequested)
	assert.Equal(t, "r1", req.RequestID)
	assert.Equal(t, "Bash:ls", req.Pattern)
	assert.Equal(t, "/w", req.Cwd)
}

func TestDecodeOutputFragments(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"output","agent_id":"a1","content":{"type":"assistant",
		"message":{"content":[{"type":"text","text":"Hel"},{"type":"tool_use","name":"Read"}]}}}`))
	require.NoError(t, err)
	assert.Equal(t, Fragment{Text: "Hel"}, ev.(Output).Fragment)

	ev, err = Decode([]byte(`{"type":"output","agent_id":"a1","content":{"type":"result","result":"Hello"}}`))
	require.NoError(t, err)
	assert.Equal(t, Fragment{Text: "Hello", Complete: true}, ev.(Output).Fragment)

	ev, err = Decode([]byte(`{"type":"output","agent_id":"a1","content":{"raw":"npm WARN"}}`))
	require.NoError(t, err)
	assert.True(t, ev.(Output).Fragment.Empty())
}

func TestDecodeInterrupt(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"interrupt","agent_id":"a1","interrupt_type":"question","content":{"type":"assistant",
		"message":{"content":[{"type":"text","text":"One thing first."},
		{"type":"tool_use","name":"AskUserQuestion","input":{"questions":[{"question":"Which database?"}]}}]}}}`))
	require.NoError(t, err)
	in := ev.(Interrupt)
	assert.Equal(t, "question", in.Kind)
	assert.Equal(t, "One thing first.", in.Fragment.Text)
	assert.Equal(t, "Which database?", in.Summary())
}

func TestExtractFragmentStreamingDeltas(t *testing.T) {
	f := ExtractFragment(map[string]any{
		"type":  "content_block_delta",
		"delta": map[string]any{"type": "text_delta", "text": "ab"},
	})
	assert.Equal(t, Fragment{Text: "ab"}, f)

	f = ExtractFragment(map[string]any{
		"type": "stream_event",
		"event": map[string]any{
			"type":  "content_block_delta",
			"delta": map[string]any{"type": "input_json_delta", "partial_json": "{"},
		},
	})
	assert.True(t, f.Empty())
}

func TestExtractQuestionPlan(t *testing.T) {
	q := ExtractQuestion(map[string]any{
		"type": "assistant",
		"message": map[string]any{"content": []any{
			map[string]any{"type": "tool_use", "name": "ExitPlanMode", "input": map[string]any{"plan": "1. migrate"}},
		}},
	})
	assert.Equal(t, "1. migrate", q)
}

func TestOutboundFrames(t *testing.T) {
	b, err := json.Marshal(NewUserMessage("s1", "go ahead"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"session_id":"s1","agent_id":"s1","content":"go ahead"}`, string(b))

	b, err = json.Marshal(NewStopAgent("s1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"stop_agent","session_id":"s1","agent_id":"s1"}`, string(b))
}
