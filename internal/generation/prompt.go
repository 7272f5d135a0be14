package generation

import (
	"fmt"
	"regexp"
	"strings"
)

const promptTemplate = `
Create exactly %[1]d multiple choice questions based on the following text. 
Each question must have exactly 4 options (A, B, C, D) with only one correct answer.

Text to analyze: "%[2]s"

IMPORTANT: Return ONLY a valid JSON array with NO additional text, markdown, or explanations.

Required JSON format:
[
  {
    "question": "Your question here?",
    "options": {
      "A": "First option",
      "B": "Second option", 
      "C": "Third option",
      "D": "Fourth option"
    },
    "correct_answer": "A"
  }
]

Rules:
- Questions must be clear and specific to the provided text
- All 4 options must be plausible but only one correct
- correct_answer must be exactly "A", "B", "C", or "D"
- Return valid JSON only, no markdown code blocks
- Generate exactly %[1]d questions
`

// BuildPrompt returns the quiz prompt for n questions about text
func BuildPrompt(text string, n int) string {
	return fmt.Sprintf(promptTemplate, n, text)
}

var (
	jsonFenceOpen  = regexp.MustCompile("```json\n?")
	fenceOpen      = regexp.MustCompile("```\n?")
	fenceClose     = regexp.MustCompile("\n?```$")
	strayFenceLine = regexp.MustCompile("^\\s*```.*?\n")
	strayFenceEnd  = regexp.MustCompile("\n```\\s*$")
)

// CleanResponse strips the markdown code fences models tend to wrap JSON in
func CleanResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = replaceFirst(jsonFenceOpen, content)
		content = fenceClose.ReplaceAllString(content, "")
	}
	if strings.HasPrefix(content, "```") {
		content = replaceFirst(fenceOpen, content)
		content = fenceClose.ReplaceAllString(content, "")
	}

	content = replaceFirst(strayFenceLine, content)
	return strayFenceEnd.ReplaceAllString(content, "")
}

func replaceFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}
