// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionState is the position of a session in the conversion flow.
type ConversionState string

const (
	StateIdle       ConversionState = "idle"
	StateProcessing ConversionState = "processing"
	StateCompleted  ConversionState = "completed"
	StateError      ConversionState = "error"
)

// FileDescriptor names a file and its size in bytes. A session holds two:
// the uploaded original and the converted result.
type FileDescriptor struct {
	Name string `json:"name" yaml:"name"`
	Size int64  `json:"size" yaml:"size"`
}

// Snapshot is a point-in-time copy of a session's view state.
type Snapshot struct {
	State    ConversionState `json:"state"`
	Progress float64         `json:"progress"`

	// Original is set in every state except idle.
	Original *FileDescriptor `json:"original,omitempty"`

	// Converted is set only in the completed state.
	Converted *FileDescriptor `json:"converted,omitempty"`

	// Error holds the failure message in the error state.
	Error string `json:"error,omitempty"`
}

// Percent returns progress rounded down to a whole percentage.
func (s Snapshot) Percent() int {
	return int(s.Progress)
}

// NoticeLevel classifies a Notification for display.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notification is a short user-visible message raised by the orchestrator.
type Notification struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Level       NoticeLevel `json:"level"`
}

// Outcome is the terminal result of one conversion run.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// ConversionRecord describes one finished conversion run for the history ledger.
type ConversionRecord struct {
	ID         int64           `json:"id" yaml:"id"`
	Original   FileDescriptor  `json:"original" yaml:"original"`
	Converted  *FileDescriptor `json:"converted,omitempty" yaml:"converted,omitempty"`
	Engine     string          `json:"engine" yaml:"engine"`
	Outcome    Outcome         `json:"outcome" yaml:"outcome"`
	Error      string          `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time       `json:"finished_at" yaml:"finished_at"`
}
