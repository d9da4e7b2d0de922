package models

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyTrace is returned when a trace file holds no events.
var ErrEmptyTrace = errors.New("trace contains no events")

// TraceEventType names an event kind in a recorded trace.
type TraceEventType string

const (
	TraceStart TraceEventType = "start"
	TraceStop  TraceEventType = "stop"
	TraceClear TraceEventType = "clear"
	TraceKey   TraceEventType = "key"
	TraceMove  TraceEventType = "move"
	TraceClick TraceEventType = "click"
)

// Valid reports whether t is a known event type.
func (t TraceEventType) Valid() bool {
	switch t {
	case TraceStart, TraceStop, TraceClear, TraceKey, TraceMove, TraceClick:
		return true
	}
	return false
}

// TraceEvent is one input event as captured by a host environment.
type TraceEvent struct {
	T       float64        `yaml:"t" json:"t"`
	Type    TraceEventType `yaml:"type" json:"type"`
	Session string         `yaml:"session,omitempty" json:"session,omitempty"`
	Key     string         `yaml:"key,omitempty" json:"key,omitempty"`
	Code    string         `yaml:"code,omitempty" json:"code,omitempty"`
	X       float64        `yaml:"x,omitempty" json:"x,omitempty"`
	Y       float64        `yaml:"y,omitempty" json:"y,omitempty"`
	Button  int            `yaml:"button,omitempty" json:"button,omitempty"`
}

// Trace is a recorded stream of input events. Start and End pin the replay
// clock; when absent the first and last event times are used.
type Trace struct {
	Session string       `yaml:"session,omitempty" json:"session,omitempty"`
	Start   Measure      `yaml:"start" json:"start"`
	End     Measure      `yaml:"end" json:"end"`
	Events  []TraceEvent `yaml:"events" json:"events"`
}

// Validate checks event types and fills in the default session id.
func (t *Trace) Validate() error {
	if len(t.Events) == 0 {
		return ErrEmptyTrace
	}
	for i := range t.Events {
		ev := &t.Events[i]
		if !ev.Type.Valid() {
			return fmt.Errorf("event %d: unknown type %q", i, ev.Type)
		}
		if ev.Session == "" {
			ev.Session = t.Session
		}
	}
	return nil
}

// LoadTrace reads a trace file. YAML and JSON documents are decoded as a Trace;
// files ending in .jsonl hold one TraceEvent per line.
func LoadTrace(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace file: %w", err)
	}

	var trace Trace
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		trace.Events, err = DecodeTraceLines(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trace: %w", err)
	}

	if err := trace.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trace %s: %w", path, err)
	}
	return &trace, nil
}

// DecodeTraceLines decodes newline-delimited JSON events. Blank lines are skipped.
func DecodeTraceLines(r io.Reader) ([]TraceEvent, error) {
	var events []TraceEvent
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		ev, ok, err := DecodeTraceLine(scanner.Bytes())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if ok {
			events = append(events, ev)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan trace lines: %w", err)
	}
	return events, nil
}

// DecodeTraceLine decodes a single JSONL line. ok is false for blank lines.
func DecodeTraceLine(line []byte) (ev TraceEvent, ok bool, err error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return TraceEvent{}, false, nil
	}
	if err := json.Unmarshal(line, &ev); err != nil {
		return TraceEvent{}, false, fmt.Errorf("decode event: %w", err)
	}
	if !ev.Type.Valid() {
		return TraceEvent{}, false, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return ev, true, nil
}
