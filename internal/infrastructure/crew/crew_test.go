package crew

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"wesee/internal/config"
	"wesee/internal/domain/profile"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type scriptedModel struct {
	prompts []string
	systems []string
	replies []string
	failAt  int
	calls   int
}

func (m *scriptedModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	if m.failAt > 0 && m.calls == m.failAt {
		return nil, errors.New("rate limited")
	}
	for _, msg := range messages {
		text := msg.Parts[0].(llms.TextContent).Text
		if msg.Role == llms.ChatMessageTypeSystem {
			m.systems = append(m.systems, text)
		} else {
			m.prompts = append(m.prompts, text)
		}
	}
	reply := fmt.Sprintf("out-%d", m.calls)
	if m.calls <= len(m.replies) {
		reply = m.replies[m.calls-1]
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, opts...)
}

func TestRun_SequentialContextPassing(t *testing.T) {
	model := &scriptedModel{}
	c, err := New(model, config.LLMConfig{Temperature: 0.2, MaxTokens: 512}, zerolog.Nop())
	require.NoError(t, err)

	doc := profile.Document{LinkedInURL: "https://www.linkedin.com/in/ada", Name: "Ada Lovelace"}
	out, err := c.Run(context.Background(), doc, "Senior Go engineer")
	require.NoError(t, err)

	require.Len(t, out.Steps, 4)
	assert.Equal(t, []string{
		"extract_linkedin_data",
		"analyze_job_requirements",
		"filter_relevant_content",
		"create_customized_cv",
	}, []string{out.Steps[0].Task, out.Steps[1].Task, out.Steps[2].Task, out.Steps[3].Task})
	assert.Equal(t, "out-4", out.Raw)
	assert.Equal(t, "out-4", out.Text())

	require.Len(t, model.prompts, 4)
	assert.Contains(t, model.prompts[0], "Ada Lovelace")
	assert.Contains(t, model.prompts[1], "Senior Go engineer")
	assert.Contains(t, model.prompts[2], "out-1")
	assert.Contains(t, model.prompts[2], "out-2")
	assert.Contains(t, model.prompts[3], "out-3")
	assert.Contains(t, model.systems[3], "Professional CV Writer")
}

func TestRun_StepFailureIsUpstream(t *testing.T) {
	model := &scriptedModel{failAt: 2}
	c, err := New(model, config.LLMConfig{}, zerolog.Nop())
	require.NoError(t, err)

	_, err = c.Run(context.Background(), profile.Document{}, "job")
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "analyze_job_requirements", upstream.Step)
	assert.ErrorContains(t, err, "rate limited")
}

func TestOutput_TextFallbacks(t *testing.T) {
	assert.Equal(t, "raw", Output{Raw: "raw", Content: "c"}.Text())
	assert.Equal(t, "c", Output{Content: "c"}.Text())

	o := Output{Steps: []Step{{Task: "a", Agent: "x", Output: ""}}}
	assert.True(t, strings.HasPrefix(o.Text(), "## a (x)"))
}

func TestRun_EmptyFinalFallsBackToContent(t *testing.T) {
	model := &scriptedModel{replies: []string{"one", "two", "three", "   "}}
	c, err := New(model, config.LLMConfig{}, zerolog.Nop())
	require.NoError(t, err)

	out, err := c.Run(context.Background(), profile.Document{}, "job")
	require.NoError(t, err)
	assert.Empty(t, out.Raw)
	assert.Equal(t, "three", out.Text())
}

func TestNewFromYAML_Validation(t *testing.T) {
	model := &scriptedModel{}
	agents := []byte("writer:\n  role: Writer\n")

	_, err := NewFromYAML(model, agents, []byte("- name: t1\n  agent: ghost\n  description: x\n"), config.LLMConfig{}, zerolog.Nop())
	assert.ErrorContains(t, err, "unknown agent")

	_, err = NewFromYAML(model, agents, []byte("[]"), config.LLMConfig{}, zerolog.Nop())
	assert.ErrorContains(t, err, "no tasks")

	_, err = NewFromYAML(model, agents, []byte("- name: t1\n  agent: writer\n  description: '{{ .Nope'\n"), config.LLMConfig{}, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewFromYAML(nil, agents, nil, config.LLMConfig{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewModel_Provider(t *testing.T) {
	_, err := NewModel(config.LLMConfig{Provider: "bard"})
	assert.ErrorContains(t, err, "unsupported")

	_, err = NewModel(config.LLMConfig{Provider: config.ProviderOpenAI})
	assert.ErrorContains(t, err, "api key")

	_, err = NewModel(config.LLMConfig{Provider: config.ProviderAnthropic})
	assert.ErrorContains(t, err, "api key")
}
