package generator

import (
	"context"
	"strings"
	"time"

	"auramythos/logx"
	"auramythos/metrics"
)

const (
	DefaultMaxTokens   int64   = 150
	DefaultTemperature float64 = 0.7
	DefaultTimeout             = 30 * time.Second
)

// Service produces one continuation per call. It keeps no per-story state and
// is safe for concurrent use.
type Service struct {
	llm         LLMClient
	provider    string
	formats     *Formats
	maxTokens   int64
	temperature float64
	timeout     time.Duration
	now         func() time.Time
}

type Option func(*Service)

func WithFormats(f *Formats) Option {
	return func(s *Service) { s.formats = f }
}

func WithMaxTokens(n int64) Option {
	return func(s *Service) { s.maxTokens = n }
}

func WithTemperature(t float64) Option {
	return func(s *Service) { s.temperature = t }
}

// WithTimeout bounds each call to the text generator. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithProvider names the provider in GenerationError and logs.
func WithProvider(name string) Option {
	return func(s *Service) { s.provider = name }
}

// WithClock overrides time.Now for turn timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a Service. A nil llm puts the service in demo mode.
func NewService(llm LLMClient, opts ...Option) *Service {
	s := &Service{
		llm:         llm,
		formats:     DefaultFormats(),
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		timeout:     DefaultTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Live reports whether a text generator is configured.
func (s *Service) Live() bool {
	return s.llm != nil
}

// Formats returns the registry used to resolve format ids.
func (s *Service) Formats() *Formats {
	return s.formats
}

// Continue produces the next continuation. Provider failures are returned as
// *GenerationError; they are never turned into demo output here.
func (s *Service) Continue(ctx context.Context, req ContinueRequest) (ContinuationResult, error) {
	tmpl := s.formats.Resolve(req.Format)
	if s.llm == nil {
		res := s.assemble(req, tmpl, DemoContinuation(req.NewInput), true)
		metrics.StoryContinuations.WithLabelValues("demo", "ok").Inc()
		logx.Debug().Str("format", tmpl.ID).Msg("demo continuation")
		return res, nil
	}

	prompt := BuildContinuationPrompt(tmpl, req.NewInput, req.PreviousContext)
	prompt.MaxTokens = s.maxTokens
	prompt.Temperature = s.temperature

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.llm.Complete(ctx, prompt)
	if err == nil && strings.TrimSpace(out.Text) == "" {
		err = ErrEmptyCompletion
	}
	if err != nil {
		metrics.StoryContinuations.WithLabelValues("live", "error").Inc()
		return ContinuationResult{}, &GenerationError{Provider: s.provider, Err: err}
	}

	res := s.assemble(req, tmpl, strings.TrimSpace(out.Text), false)
	res.Usage = out.Usage
	metrics.StoryContinuations.WithLabelValues("live", "ok").Inc()

	ev := logx.Debug().Str("format", tmpl.ID).Int("history", len(res.ConversationHistory))
	if out.Usage != nil {
		ev = ev.Int64("total_tokens", out.Usage.TotalTokens)
	}
	ev.Msg("live continuation")
	return res, nil
}

// Demo builds the demo result for req regardless of configuration. Callers
// use it to degrade explicitly after a GenerationError.
func (s *Service) Demo(req ContinueRequest) ContinuationResult {
	return s.assemble(req, s.formats.Resolve(req.Format), DemoContinuation(req.NewInput), true)
}

func (s *Service) assemble(req ContinueRequest, tmpl FormatTemplate, continuation string, demo bool) ContinuationResult {
	return ContinuationResult{
		Continuation:        continuation,
		FullStory:           JoinStory(req.PreviousContext, continuation),
		Question:            ExtractQuestion(continuation),
		Demo:                demo,
		Format:              tmpl.ID,
		ConversationHistory: AppendTurn(req.History, newTurn(req.NewInput, continuation, s.now())),
	}
}
