package llm_test

import (
	"context"
	"testing"

	"github.com/ashureev/chorechat/internal/llm"
	"github.com/ashureev/chorechat/internal/llm/llmtest"
	"github.com/ashureev/chorechat/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelectsProvider(t *testing.T) {
	t.Parallel()

	c, err := llm.New(llm.Config{Provider: "none"})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderNone, c.Name())

	c, err = llm.New(llm.Config{Provider: "anthropic", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &llm.AnthropicClient{}, c)

	c, err = llm.New(llm.Config{Provider: "OpenAI", BaseURL: "http://localhost:11434/v1"})
	require.NoError(t, err)
	assert.IsType(t, &llm.OpenAIClient{}, c)

	_, err = llm.New(llm.Config{Provider: "anthropic"})
	assert.Error(t, err)

	_, err = llm.New(llm.Config{Provider: "gemini", APIKey: "k"})
	assert.Error(t, err)
}

func TestDefaultConfigModels(t *testing.T) {
	t.Parallel()

	assert.NotEmpty(t, llm.DefaultConfig(llm.ProviderAnthropic).Model)
	assert.NotEmpty(t, llm.DefaultConfig(llm.ProviderOpenAI).Model)
	assert.Equal(t, 1024, llm.DefaultConfig(llm.ProviderNone).MaxTokens)
}

func TestDisabledFailsAsUpstream(t *testing.T) {
	t.Parallel()

	_, err := llm.Disabled{}.Complete(context.Background(), "hi", llm.Options{})
	assert.ErrorIs(t, err, llm.ErrUpstream)
	assert.ErrorIs(t, err, llm.ErrDisabled)
}

func TestInstrumentRecordsCalls(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	stub := llmtest.New(llmtest.Text("ok"), llmtest.Fail())
	c := llm.Instrument(stub, m, nil)

	out, err := c.Complete(context.Background(), "p", llm.Options{Purpose: "router"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = c.Complete(context.Background(), "p", llm.Options{Purpose: "router"})
	require.ErrorIs(t, err, llm.ErrUpstream)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMCallsTotal.WithLabelValues("router", "stub", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMCallsTotal.WithLabelValues("router", "stub", "error")))
	assert.Equal(t, "stub", c.Name())
}

func TestStubRoutesByPurpose(t *testing.T) {
	t.Parallel()

	stub := llmtest.New(llmtest.Text("default"))
	stub.Route = map[string][]llmtest.Reply{
		"a": {llmtest.Fail(), llmtest.Text("second")},
	}

	_, err := stub.Complete(context.Background(), "", llm.Options{Purpose: "a"})
	require.Error(t, err)
	out, err := stub.Complete(context.Background(), "", llm.Options{Purpose: "a"})
	require.NoError(t, err)
	assert.Equal(t, "second", out)
	out, err = stub.Complete(context.Background(), "", llm.Options{Purpose: "b"})
	require.NoError(t, err)
	assert.Equal(t, "default", out)

	assert.Equal(t, 3, stub.CallCount())
	assert.Equal(t, 2, stub.CallCount("a"))
}
