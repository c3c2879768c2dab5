package types

import (
	"fmt"
	"strings"
	"time"
)

// ContestantID identifies a physical buzzer station.
type ContestantID int

func (c ContestantID) String() string { return fmt.Sprintf("%d", int(c)) }

// Question is one prompt in the fixed quiz sequence.
type Question struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// OutcomeKind classifies a single answer session.
type OutcomeKind int

const (
	// Empty means no usable speech was captured (timeout, failure or blank).
	Empty OutcomeKind = iota
	// OffTopic means the answer was captured but judged unrelated to the question.
	OffTopic
	// Accepted means the answer enters the round's cross-contestant pool.
	Accepted
)

func (k OutcomeKind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case OffTopic:
		return "off_topic"
	default:
		return "empty"
	}
}

// Outcome is the result of one AnswerSession. Seq is the contestant's
// position in the round's buzz order; Relevance is the question/answer
// similarity and stays zero for Empty outcomes.
type Outcome struct {
	Contestant ContestantID `json:"contestant"`
	Seq        int          `json:"seq"`
	Kind       OutcomeKind  `json:"kind"`
	Transcript string       `json:"transcript,omitempty"`
	Relevance  float64      `json:"relevance"`
	Vector     []float32    `json:"-"`
	At         time.Time    `json:"at"`
}

// Violation names why a contestant was flagged.
type Violation int

const (
	NoAnswer Violation = iota
	OffTopicAnswer
	DuplicateAnswer
	JudgingFailed
)

func (v Violation) String() string {
	switch v {
	case NoAnswer:
		return "no_answer"
	case OffTopicAnswer:
		return "off_topic"
	case DuplicateAnswer:
		return "duplicate"
	case JudgingFailed:
		return "judging_failed"
	default:
		return "unknown"
	}
}

// Flag records one integrity violation. Of names the earlier contestant a
// duplicate answer matched.
type Flag struct {
	Contestant ContestantID  `json:"contestant"`
	Violation  Violation     `json:"violation"`
	Of         *ContestantID `json:"of,omitempty"`
	Similarity float64       `json:"similarity,omitempty"`
}

// Blank reports whether a transcript carries no speech.
func Blank(transcript string) bool { return strings.TrimSpace(transcript) == "" }

func (k OutcomeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (v Violation) MarshalText() ([]byte, error) { return []byte(v.String()), nil }
