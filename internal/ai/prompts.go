package ai

import (
	"fmt"
	"strings"
)

func buildGenerationSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString("You are a course question author for a distance-education high school.\n")
	sb.WriteString("Write one open-ended written-response question on the requested topic.\n\n")
	sb.WriteString("Respond ONLY with a JSON object with these fields:\n")
	sb.WriteString(`{"question_text": "<the question>", "expected_answer": "<key points a full answer must cover>", "sample_answer": "<a short exemplary answer>", "word_limit": <suggested word count>}`)
	sb.WriteString("\n")
	return sb.String()
}

func buildGenerationPrompt(spec GenerationSpec) string {
	var sb strings.Builder
	if spec.CourseTitle != "" {
		sb.WriteString("COURSE: " + spec.CourseTitle + "\n")
	}
	sb.WriteString("TOPIC: " + spec.Topic + "\n")
	sb.WriteString("DIFFICULTY: " + spec.Difficulty + "\n")
	sb.WriteString(fmt.Sprintf("ANSWER LENGTH: between %d and %d words\n", spec.MinWords, spec.MaxWords))
	if spec.PromptNotes != "" {
		sb.WriteString("\nAUTHOR NOTES:\n" + spec.PromptNotes + "\n")
	}
	return sb.String()
}

func buildEvaluationSystemPrompt(spec EvaluationSpec) string {
	var sb strings.Builder
	sb.WriteString("You are marking a student's written answer.\n\n")
	sb.WriteString("QUESTION: " + spec.QuestionText + "\n\n")
	sb.WriteString("EXPECTED ANSWER (not shown to the student):\n" + spec.ExpectedAnswer + "\n\n")
	sb.WriteString(fmt.Sprintf("MAX SCORE: %g\n\n", spec.MaxScore))

	if spec.GradingGuidance != "" {
		sb.WriteString("COURSE GRADING GUIDANCE (common mistakes, scoring notes):\n")
		sb.WriteString(spec.GradingGuidance + "\n\n")
	}
	if spec.PromptNotes != "" {
		sb.WriteString("ASSESSMENT NOTES:\n" + spec.PromptNotes + "\n\n")
	}

	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- Mark for correctness, completeness, and understanding.\n")
	sb.WriteString("- Be generous with partial credit: award points for every correct idea even in a flawed answer.\n")
	sb.WriteString("- Set is_correct to true ONLY when the answer earns the full score; any partial credit means false.\n")
	sb.WriteString("\nRespond ONLY with a JSON object:\n")
	sb.WriteString(fmt.Sprintf(`{"is_correct": <true/false>, "score": <number 0 to %g>, "max_score": %g, "feedback": "<brief feedback for the student>"}`, spec.MaxScore, spec.MaxScore))
	sb.WriteString("\n")
	return sb.String()
}
