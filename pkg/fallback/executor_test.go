package fallback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staticnews/pkg/model"
	"staticnews/pkg/tracker"
)

type stubProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Generate(_ context.Context, in Input) (model.Output, error) {
	p.calls++
	if p.err != nil {
		return model.Output{}, p.err
	}
	return model.Output{Text: p.text}, nil
}

type stubGuaranteed struct {
	calls int
}

func (g *stubGuaranteed) Name() string { return "procedural" }

func (g *stubGuaranteed) Generate(in Input) model.Output {
	g.calls++
	return model.Output{Text: "filler"}
}

func newRequest() *model.GenerationRequest {
	return &model.GenerationRequest{
		ID:        "req-1",
		Kind:      model.OutputScript,
		State:     model.StatePending,
		CreatedAt: time.Now(),
	}
}

func TestExecuteFirstSuccessWins(t *testing.T) {
	first := &stubProvider{name: "alpha", text: "from alpha"}
	second := &stubProvider{name: "beta", text: "from beta"}
	guaranteed := &stubGuaranteed{}

	exec, err := New([]Provider{first, second}, guaranteed, time.Second, nil)
	require.NoError(t, err)

	req := newRequest()
	out := exec.Execute(context.Background(), req, Input{Kind: model.OutputScript})

	assert.Equal(t, "from alpha", out.Text)
	assert.Equal(t, "alpha", out.Tier)
	assert.Equal(t, model.OutputScript, out.Kind)
	assert.Equal(t, model.StateSucceeded, req.State)
	assert.Equal(t, 0, second.calls, "later providers must not be tried after a success")
	assert.Equal(t, 0, guaranteed.calls)
	require.Len(t, req.Attempts, 1)
	assert.Equal(t, "alpha", req.Attempts[0].Provider)
	assert.Empty(t, req.Attempts[0].Err)
}

func TestExecuteAdvancesOnError(t *testing.T) {
	first := &stubProvider{name: "alpha", err: errors.New("rate limited")}
	second := &stubProvider{name: "beta", text: "from beta"}

	exec, err := New([]Provider{first, second}, &stubGuaranteed{}, time.Second, nil)
	require.NoError(t, err)

	req := newRequest()
	out := exec.Execute(context.Background(), req, Input{Kind: model.OutputScript})

	assert.Equal(t, "from beta", out.Text)
	assert.Equal(t, "beta", out.Tier)
	assert.Equal(t, model.StateSucceeded, req.State)
	require.Len(t, req.Attempts, 2)
	assert.Equal(t, "alpha", req.Attempts[0].Provider)
	assert.Equal(t, "rate limited", req.Attempts[0].Err)
	assert.Equal(t, "beta", req.Attempts[1].Provider)
}

func TestExecuteExhaustionFallsBack(t *testing.T) {
	first := &stubProvider{name: "alpha", err: errors.New("down")}
	second := &stubProvider{name: "beta", err: errors.New("also down")}
	guaranteed := &stubGuaranteed{}

	exec, err := New([]Provider{first, second}, guaranteed, time.Second, nil)
	require.NoError(t, err)

	req := newRequest()
	out := exec.Execute(context.Background(), req, Input{Kind: model.OutputSpeech})

	assert.Equal(t, "filler", out.Text)
	assert.Equal(t, "procedural", out.Tier)
	assert.Equal(t, model.OutputSpeech, out.Kind)
	assert.Equal(t, model.StateFellBack, req.State)
	assert.Equal(t, 1, guaranteed.calls)
	require.Len(t, req.Attempts, 3)
	assert.Equal(t, "procedural", req.Attempts[2].Provider)
}

func TestExecuteEmptyChainGoesStraightToGuaranteed(t *testing.T) {
	guaranteed := &stubGuaranteed{}
	exec, err := New(nil, guaranteed, time.Second, nil)
	require.NoError(t, err)

	req := newRequest()
	out := exec.Execute(context.Background(), req, Input{Kind: model.OutputScript})

	assert.Equal(t, "procedural", out.Tier)
	assert.Equal(t, model.StateFellBack, req.State)
	assert.Equal(t, 1, guaranteed.calls)
}

func TestExecuteRecordsTrackerOutcomes(t *testing.T) {
	tr := tracker.New()
	first := &stubProvider{name: "alpha", err: errors.New("down")}

	exec, err := New([]Provider{first}, &stubGuaranteed{}, time.Second, tr)
	require.NoError(t, err)

	exec.Execute(context.Background(), newRequest(), Input{Kind: model.OutputScript})

	stats := tr.Snapshot()
	require.Contains(t, stats, "alpha")
	assert.Equal(t, int64(1), stats["alpha"].Failures)
	require.Contains(t, stats, "procedural")
	assert.Equal(t, int64(1), stats["procedural"].FallbackHits)
}

func TestNewRequiresGuaranteed(t *testing.T) {
	_, err := New(nil, nil, time.Second, nil)
	assert.Error(t, err)
}
