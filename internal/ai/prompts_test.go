package ai

import (
	"strings"
	"testing"
)

func TestBuildGenerationPrompt(t *testing.T) {
	spec := GenerationSpec{
		CourseTitle: "English 30-1",
		Topic:       "theme development in Hamlet",
		Difficulty:  "intermediate",
		MinWords:    50,
		MaxWords:    200,
		PromptNotes: "focus on Act 3",
	}

	prompt := buildGenerationPrompt(spec)
	for _, want := range []string{"English 30-1", "theme development in Hamlet", "intermediate", "between 50 and 200 words", "focus on Act 3"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildGenerationPromptOmitsEmptySections(t *testing.T) {
	prompt := buildGenerationPrompt(GenerationSpec{Topic: "fractions", Difficulty: "beginner", MinWords: 5, MaxWords: 50})
	if strings.Contains(prompt, "COURSE:") {
		t.Error("prompt should omit COURSE when title is empty")
	}
	if strings.Contains(prompt, "AUTHOR NOTES") {
		t.Error("prompt should omit notes section when empty")
	}
}

func TestBuildEvaluationSystemPrompt(t *testing.T) {
	spec := EvaluationSpec{
		QuestionText:    "Explain photosynthesis.",
		ExpectedAnswer:  "Light energy converted to chemical energy in chloroplasts.",
		MaxScore:        5,
		GradingGuidance: "Common mistake: confusing respiration with photosynthesis.",
	}

	prompt := buildEvaluationSystemPrompt(spec)
	for _, want := range []string{
		"Explain photosynthesis.",
		"chloroplasts",
		"MAX SCORE: 5",
		"confusing respiration",
		"generous with partial credit",
		// is_correct gates the completed status, so the prompt must demand
		// the full score, not near-full.
		"ONLY when the answer earns the full score",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestDisabledClient(t *testing.T) {
	c := New("", "", "gpt-4o-mini")
	if c.Enabled() {
		t.Fatal("client without API key should be disabled")
	}
	if _, err := c.GenerateQuestion(t.Context(), GenerationSpec{Topic: "x"}); err != ErrDisabled {
		t.Errorf("GenerateQuestion error = %v, want ErrDisabled", err)
	}
	if _, err := c.EvaluateAnswer(t.Context(), EvaluationSpec{}); err != ErrDisabled {
		t.Errorf("EvaluateAnswer error = %v, want ErrDisabled", err)
	}
}
