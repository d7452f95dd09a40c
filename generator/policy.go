package generator

import (
	"errors"
	"fmt"

	"auramythos/logx"
	"auramythos/metrics"
)

// ErrorPolicy decides what a caller does when the text generator fails.
type ErrorPolicy string

const (
	// PolicyRaise returns the GenerationError to the caller.
	PolicyRaise ErrorPolicy = "raise"
	// PolicyDemo replaces the failed continuation with the demo continuation.
	PolicyDemo ErrorPolicy = "demo"
)

// ParseErrorPolicy accepts "raise" or "demo". An empty string yields def.
func ParseErrorPolicy(s string, def ErrorPolicy) (ErrorPolicy, error) {
	switch ErrorPolicy(s) {
	case "":
		return def, nil
	case PolicyRaise, PolicyDemo:
		return ErrorPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown generation error policy %q (want raise or demo)", s)
	}
}

// Apply post-processes the outcome of svc.Continue(req). Under PolicyDemo a
// GenerationError is replaced by svc.Demo(req); every other error, and every
// error under PolicyRaise, is returned unchanged.
func (p ErrorPolicy) Apply(svc *Service, req ContinueRequest, res ContinuationResult, err error) (ContinuationResult, error) {
	if err == nil || p != PolicyDemo {
		return res, err
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		return res, err
	}
	logx.Warn().Err(err).Str("format", req.Format).Msg("generation failed, falling back to demo continuation")
	metrics.StoryContinuations.WithLabelValues("fallback", "ok").Inc()
	return svc.Demo(req), nil
}
