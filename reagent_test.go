package reagent

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/BaSui01/reagent/engine"
	"github.com/BaSui01/reagent/gateway"
	"github.com/BaSui01/reagent/plugin"
	"github.com/BaSui01/reagent/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGateway struct {
	mu      sync.Mutex
	replies []string
	calls   int
}

func (g *fakeGateway) SendMessage(_ context.Context, _ *gateway.Request) (*gateway.Reply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls >= len(g.replies) {
		return nil, errors.New("no scripted reply left")
	}
	text := g.replies[g.calls]
	g.calls++
	return &gateway.Reply{Text: text, Model: "test-model"}, nil
}

type directoryPlugin struct {
	lastArgs map[string]any
	fail     bool
}

func (p *directoryPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{Name: "team_directory", Category: "directory", Version: "1.0.0"}
}
func (p *directoryPlugin) InputSchema() json.RawMessage  { return json.RawMessage(`{}`) }
func (p *directoryPlugin) OutputSchema() json.RawMessage { return json.RawMessage(`{}`) }
func (p *directoryPlugin) Validate(context.Context, map[string]any) error { return nil }

func (p *directoryPlugin) Execute(_ context.Context, args map[string]any) (json.RawMessage, error) {
	p.lastArgs = args
	if p.fail {
		return nil, errors.New("directory unavailable")
	}
	return json.RawMessage(`{"members": ["alice", "bob"], "sources": [{"id": "dir-1"}]}`), nil
}

func newTestAgent(t *testing.T, gw gateway.Gateway, opts ...Option) (*Agent, *directoryPlugin) {
	t.Helper()
	dir := &directoryPlugin{}
	reg := plugin.NewInMemoryRegistry(zap.NewNop())
	require.NoError(t, reg.Register(dir))

	base := []Option{
		WithGateway(gw),
		WithRegistry(reg),
		WithDirectoryPlugin("team_directory"),
	}
	a, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return a, dir
}

func TestNewValidation(t *testing.T) {
	reg := plugin.NewInMemoryRegistry(zap.NewNop())
	require.NoError(t, reg.Register(&directoryPlugin{}))

	_, err := New(WithRegistry(reg))
	assert.ErrorContains(t, err, "gateway is required")

	_, err = New(WithGateway(&fakeGateway{}))
	assert.ErrorContains(t, err, "at least one plugin")

	_, err = New(WithGateway(&fakeGateway{}), WithRegistry(plugin.NewInMemoryRegistry(zap.NewNop())))
	assert.ErrorContains(t, err, "at least one plugin")

	_, err = New(
		WithGateway(&fakeGateway{}),
		WithRegistry(reg),
		WithDirectoryPlugin("nope"),
	)
	assert.ErrorContains(t, err, "not registered")

	a, err := New(WithGateway(&fakeGateway{}), WithRegistry(reg))
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestProcessQueryShortcut(t *testing.T) {
	gw := &fakeGateway{}
	a, dir := newTestAgent(t, gw)

	res, err := a.ProcessQuery(context.Background(), "list all team members", QueryOptions{UserID: "u1"})
	require.NoError(t, err)

	// The shortcut answers without any gateway exchange.
	assert.Equal(t, 0, gw.calls)
	assert.Equal(t, 1, res.ToolCallsMade)
	assert.Equal(t, types.StatusFinalAnswer, res.Status)
	assert.Contains(t, res.Answer, "alice")
	require.Len(t, res.Sources, 1)
	assert.Equal(t, "dir-1", res.Sources[0].ID)
	assert.Equal(t, "list_all", dir.lastArgs["intent"])
}

func TestProcessQueryShortcutEmailArg(t *testing.T) {
	a, dir := newTestAgent(t, &fakeGateway{})

	_, err := a.ProcessQuery(context.Background(), "find john@example.com", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, "search_by_email", dir.lastArgs["intent"])
	assert.Equal(t, "john@example.com", dir.lastArgs["value"])
}

func TestProcessQueryShortcutFailureFallsBackToLoop(t *testing.T) {
	gw := &fakeGateway{replies: []string{"Nobody is listed right now."}}
	a, dir := newTestAgent(t, gw)
	dir.fail = true

	res, err := a.ProcessQuery(context.Background(), "list all team members", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, gw.calls)
	assert.Equal(t, "Nobody is listed right now.", res.Answer)
}

func TestProcessQueryLoop(t *testing.T) {
	gw := &fakeGateway{replies: []string{"Q3 revenue grew 12%."}}
	a, _ := newTestAgent(t, gw)

	res, err := a.ProcessQuery(context.Background(), "what was Q3 revenue growth", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, gw.calls)
	assert.Equal(t, "Q3 revenue grew 12%.", res.Answer)
	assert.Equal(t, types.StatusFinalAnswer, res.Status)
}

func TestProcessQueryStreamShortcut(t *testing.T) {
	a, _ := newTestAgent(t, &fakeGateway{})

	var kinds []engine.EventType
	var last engine.Event
	for ev := range a.ProcessQueryStream(context.Background(), "show all employees", QueryOptions{}) {
		kinds = append(kinds, ev.Type)
		last = ev
	}

	assert.Equal(t, []engine.EventType{
		engine.EventToolCall,
		engine.EventObservation,
		engine.EventFinal,
		engine.EventDone,
	}, kinds)
	require.NotNil(t, last.Result)
	assert.Contains(t, last.Result.Answer, "alice")
}

func TestProcessQueryStreamLoop(t *testing.T) {
	gw := &fakeGateway{replies: []string{"Streamed answer."}}
	a, _ := newTestAgent(t, gw)

	var sawFinal, sawDone bool
	for ev := range a.ProcessQueryStream(context.Background(), "unrelated question", QueryOptions{}) {
		switch ev.Type {
		case engine.EventFinal:
			sawFinal = true
			assert.Equal(t, "Streamed answer.", ev.Data)
		case engine.EventDone:
			sawDone = true
			require.NoError(t, ev.Err)
		}
	}
	assert.True(t, sawFinal)
	assert.True(t, sawDone)
}

func TestWarmUpAndMetrics(t *testing.T) {
	a, _ := newTestAgent(t, &fakeGateway{})
	a.WarmUp(context.Background())

	_, err := a.ProcessQuery(context.Background(), "list all team members", QueryOptions{})
	require.NoError(t, err)

	m := a.Metrics()
	require.Contains(t, m, "team_directory")
	assert.Equal(t, int64(1), m["team_directory"].Calls)
}
