package domain

import (
	"errors"
	"testing"
)

func validQuestion(id string) QuestionRecord {
	return QuestionRecord{
		ID:   id,
		Text: "What is 2 + 2?",
		Options: []AnswerOption{
			{Text: "3"},
			{Text: "4", Correct: true},
			{Text: "5"},
			{Text: "22"},
		},
		TimeLimitSeconds: 10,
	}
}

func TestQuestionSetValidate(t *testing.T) {
	set := QuestionSet{ID: "set-1", Questions: []QuestionRecord{validQuestion("q1")}}
	if err := set.Validate(); err != nil {
		t.Fatalf("expected valid set, got %v", err)
	}

	empty := QuestionSet{ID: "set-1"}
	if err := empty.Validate(); !errors.Is(err, ErrEmptyQuestionSet) {
		t.Fatalf("expected ErrEmptyQuestionSet, got %v", err)
	}

	threeOptions := validQuestion("q1")
	threeOptions.Options = threeOptions.Options[:3]
	if err := (QuestionSet{ID: "set-1", Questions: []QuestionRecord{threeOptions}}).Validate(); err == nil {
		t.Fatalf("expected error for 3-option question")
	}

	noCorrect := validQuestion("q1")
	for i := range noCorrect.Options {
		noCorrect.Options[i].Correct = false
	}
	if err := (QuestionSet{ID: "set-1", Questions: []QuestionRecord{noCorrect}}).Validate(); err == nil {
		t.Fatalf("expected error for question without correct option")
	}
}

func TestCorrectOption(t *testing.T) {
	q := validQuestion("q1")
	if got := q.CorrectOption(); got != "4" {
		t.Fatalf("expected 4, got %q", got)
	}
	q.Options = nil
	if got := q.CorrectOption(); got != "" {
		t.Fatalf("expected empty for no options, got %q", got)
	}
}

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(EventSessionStarted, nil)
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	if env.Type != EventSessionStarted || env.Payload != nil {
		t.Fatalf("expected bare envelope, got %+v", env)
	}

	env, err = NewEnvelope(EventErrorNotice, ErrorNoticePayload{Message: "nope"})
	if err != nil {
		t.Fatalf("envelope with payload: %v", err)
	}
	if string(env.Payload) != `{"message":"nope"}` {
		t.Fatalf("unexpected payload: %s", env.Payload)
	}
}
