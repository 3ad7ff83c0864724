// Package crew runs the sequential set of LLM agents that turns a stored profile and a job
// description into a tailored CV.
package crew

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"wesee/internal/config"
	"wesee/internal/domain/profile"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"gopkg.in/yaml.v3"
)

//go:embed definitions/*.yaml
var definitions embed.FS

// UpstreamError wraps a failed model call.
type UpstreamError struct {
	Step string
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

var ErrEmptyCompletion = errors.New("model returned no content")

type Agent struct {
	Role      string `yaml:"role"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`
}

type Task struct {
	Name           string `yaml:"name"`
	Agent          string `yaml:"agent"`
	Description    string `yaml:"description"`
	ExpectedOutput string `yaml:"expected_output"`

	prompt *template.Template
}

// Step is one task's output.
type Step struct {
	Task   string
	Agent  string
	Output string
}

// Output is the result of a run. Raw is the final task's text, Content the last non-empty
// step output.
type Output struct {
	Raw     string
	Content string
	Steps   []Step
}

// Text returns the CV text: Raw if set, else Content, else the string form.
func (o Output) Text() string {
	if o.Raw != "" {
		return o.Raw
	}
	if o.Content != "" {
		return o.Content
	}
	return o.String()
}

func (o Output) String() string {
	var b strings.Builder
	for _, s := range o.Steps {
		fmt.Fprintf(&b, "## %s (%s)\n%s\n\n", s.Task, s.Agent, s.Output)
	}
	return strings.TrimSpace(b.String())
}

type promptData struct {
	Profile        string
	JobDescription string
	Outputs        map[string]string
}

type Crew struct {
	model       llms.Model
	agents      map[string]Agent
	tasks       []Task
	temperature float64
	maxTokens   int
	log         zerolog.Logger
}

// New builds a crew from the embedded agent and task definitions.
func New(model llms.Model, cfg config.LLMConfig, l zerolog.Logger) (*Crew, error) {
	agentsYAML, err := definitions.ReadFile("definitions/agents.yaml")
	if err != nil {
		return nil, err
	}
	tasksYAML, err := definitions.ReadFile("definitions/tasks.yaml")
	if err != nil {
		return nil, err
	}
	return NewFromYAML(model, agentsYAML, tasksYAML, cfg, l)
}

func NewFromYAML(model llms.Model, agentsYAML, tasksYAML []byte, cfg config.LLMConfig, l zerolog.Logger) (*Crew, error) {
	if model == nil {
		return nil, errors.New("crew: nil model")
	}

	var agents map[string]Agent
	if err := yaml.Unmarshal(agentsYAML, &agents); err != nil {
		return nil, fmt.Errorf("parse agents: %w", err)
	}
	var tasks []Task
	if err := yaml.Unmarshal(tasksYAML, &tasks); err != nil {
		return nil, fmt.Errorf("parse tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil, errors.New("crew: no tasks defined")
	}

	for i := range tasks {
		t := &tasks[i]
		if t.Name == "" {
			return nil, fmt.Errorf("task %d: missing name", i)
		}
		if _, ok := agents[t.Agent]; !ok {
			return nil, fmt.Errorf("task %s: unknown agent %q", t.Name, t.Agent)
		}
		tmpl, err := template.New(t.Name).Parse(t.Description)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", t.Name, err)
		}
		t.prompt = tmpl
	}

	return &Crew{
		model:       model,
		agents:      agents,
		tasks:       tasks,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		log:         l,
	}, nil
}

// Run executes every task in order. Each task sees the profile, the job description and the
// outputs of the tasks before it.
func (c *Crew) Run(ctx context.Context, doc profile.Document, jobDescription string) (Output, error) {
	profileJSON, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Output{}, fmt.Errorf("encode profile: %w", err)
	}

	data := promptData{
		Profile:        string(profileJSON),
		JobDescription: jobDescription,
		Outputs:        make(map[string]string, len(c.tasks)),
	}

	var out Output
	for _, t := range c.tasks {
		agent := c.agents[t.Agent]

		var prompt bytes.Buffer
		if err := t.prompt.Execute(&prompt, data); err != nil {
			return Output{}, fmt.Errorf("render task %s: %w", t.Name, err)
		}

		start := time.Now()
		text, err := c.generate(ctx, agent, t, prompt.String())
		if err != nil {
			return Output{}, &UpstreamError{Step: t.Name, Err: err}
		}
		c.log.Info().
			Str("task", t.Name).
			Str("agent", t.Agent).
			Dur("latency", time.Since(start)).
			Int("chars", len(text)).
			Msg("crew step completed")

		data.Outputs[t.Name] = text
		out.Steps = append(out.Steps, Step{Task: t.Name, Agent: t.Agent, Output: text})
		if text != "" {
			out.Content = text
		}
	}

	out.Raw = out.Steps[len(out.Steps)-1].Output
	return out, nil
}

func (c *Crew) generate(ctx context.Context, agent Agent, t Task, prompt string) (string, error) {
	system := fmt.Sprintf("You are %s.\n%s\n\nYour goal: %s",
		strings.TrimSpace(agent.Role), strings.TrimSpace(agent.Backstory), strings.TrimSpace(agent.Goal))
	user := prompt
	if t.ExpectedOutput != "" {
		user += "\n\nExpected output: " + strings.TrimSpace(t.ExpectedOutput)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	var opts []llms.CallOption
	if c.temperature > 0 {
		opts = append(opts, llms.WithTemperature(c.temperature))
	}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}

	resp, err := c.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
