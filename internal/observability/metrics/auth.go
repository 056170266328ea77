package metrics

import (
	"time"

	obserrors "github.com/target/fitmatch-auth/internal/observability/errors"
	"github.com/target/fitmatch-auth/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess   = "success"
	ResultError     = "error"
	ResultCancelled = "cancelled"
	ResultRejected  = "rejected"
)

// Flow names.
const (
	FlowSession = "session"
	FlowSignup  = "signup"
)

// FlowMetric captures one state-machine operation for metric emission.
type FlowMetric struct {
	Flow      string
	Operation string
	Result    string
	Duration  time.Duration
	Err       error
}

// EmitFlowTransition emits standardised auth flow metrics.
func EmitFlowTransition(sink statsd.Sink, in FlowMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"flow":      in.Flow,
		"operation": in.Operation,
		"result":    in.Result,
	}

	if in.Err != nil {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("auth.transition", 1, tags)

	if in.Duration > 0 {
		sink.Timing("auth.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
