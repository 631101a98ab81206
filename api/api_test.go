package api

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestErrorIs(t *testing.T) {
	err := WrapError(ErrCodeNetworkFailure, io.ErrUnexpectedEOF, "reading %s", "body")
	wrapped := fmt.Errorf("session: %w", err)

	if !errors.Is(wrapped, ErrNetworkFailure) {
		t.Error("expected network failure")
	}
	if errors.Is(wrapped, ErrCancelled) {
		t.Error("network failure matched cancelled")
	}
	if !errors.Is(wrapped, io.ErrUnexpectedEOF) {
		t.Error("cause not reachable through Unwrap")
	}
	var apiErr *Error
	if !errors.As(wrapped, &apiErr) || apiErr.Code != ErrCodeNetworkFailure {
		t.Errorf("errors.As gave %v", apiErr)
	}
	if got, want := err.Error(), "network_failure: reading body"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorMessageFallsBackToCause(t *testing.T) {
	err := &Error{Code: ErrCodeProtocol, Err: io.EOF}
	if got, want := err.Error(), "protocol_error: EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	var nilErr *Error
	if nilErr.Error() != "" || nilErr.Is(ErrProtocol) || nilErr.Unwrap() != nil {
		t.Error("nil *Error should be inert")
	}
}

func TestParseEvent(t *testing.T) {
	acc := "line1\n"
	dur := int64(1200)
	tests := []struct {
		name    string
		in      string
		want    *Event
		wantErr bool
	}{
		{
			name: "status",
			in:   `{"type":"status","message":"warming up"}`,
			want: &Event{Type: EventStatus, Message: "warming up"},
		},
		{
			name: "generator",
			in:   `{"type":"generator","model":"A","status":"complete","output":"x\n","durationMs":1200,"usage":{"sources":{"A":{"inputTokens":10,"outputTokens":20}}}}`,
			want: &Event{
				Type: EventGenerator, Model: "A", Status: StatusComplete, Output: "x\n", DurationMs: &dur,
				Usage: &Usage{Sources: map[string]TokenUsage{"A": {InputTokens: 10, OutputTokens: 20}}},
			},
		},
		{
			name: "evaluator accumulated",
			in:   `{"type":"evaluator","status":"streaming","accumulated":"line1\n"}`,
			want: &Event{Type: EventEvaluator, Status: StatusStreaming, Accumulated: &acc},
		},
		{
			name: "done",
			in:   `{"type":"done","result":"ok","timing":{"perSourceMs":{"A":5},"mergeMs":3,"totalMs":9}}`,
			want: &Event{Type: EventDone, Result: "ok", Timing: &Timing{PerSourceMs: map[string]int64{"A": 5}, MergeMs: 3, TotalMs: 9}},
		},
		{
			name:    "missing type",
			in:      `{"message":"x"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			in:      `data: nope`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvent([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseEvent() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
