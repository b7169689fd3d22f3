package curator

import (
	"fmt"
	"strings"
)

// formatContent renders a post and its top comments as numbered text
// for the curation prompts.
func formatContent(p Post) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "POST TITLE: %s\n", p.Title)
	fmt.Fprintf(&sb, "POST BODY: %s", p.Selftext)

	if len(p.Comments) > 0 {
		sb.WriteString("\n\nTOP COMMENTS:")
		for i, c := range p.Comments {
			if i >= 10 {
				break
			}
			body := c.Body
			if len(body) > 200 {
				body = body[:200]
			}
			fmt.Fprintf(&sb, "\n%d. %s", i+1, body)
		}
	}
	return sb.String()
}

// buildScreeningPrompt builds the accept/reject pre-screening prompt.
// Content is truncated for cost control.
func buildScreeningPrompt(content string) string {
	if len(content) > 1500 {
		content = content[:1500]
	}
	return fmt.Sprintf(`Analyze this Reddit discussion to determine if it would make a good evaluation question for testing an AI model's knowledge and reasoning.

REJECT the post if it has ANY of these problems:

**AMBIGUOUS/SUBJECTIVE CONTENT:**
- Purely opinion-based discussions with no way to craft a question that is answerable from the discussion
- Highly subjective matters with no concrete right/wrong answers
- Personal preference discussions

**INAPPROPRIATE CONTENT:**
- Personal relationship drama or therapy-seeking
- Medical advice requests (serious health issues)
- Legal advice for specific cases
- Content that's primarily emotional venting

**ACCEPT the post if:**
- Has clear, factual, or procedural knowledge being shared
- Contains concrete advice, explanations, or solutions
- Demonstrates expertise or experience-based insights
- Has clear social and cultural direction
- Would allow testing factual knowledge, reasoning, or problem-solving
- Has substantive discussion with multiple informative responses

Return ONLY:
DECISION: ACCEPT or REJECT
REASON: [one-sentence explanation]

Discussion Content:
%s`, content)
}

// buildKeywordPrompt builds the forbidden-keyword extraction prompt.
func buildKeywordPrompt(content string) string {
	return fmt.Sprintf(`Extract the key specific terms, names, brands, technical jargon, and unique phrases from this Reddit discussion that should be avoided when creating an evaluation question.

Focus on:
- Technical terms and jargon
- Specific product/brand/events names
- Unique phrases or slang
- Domain-specific vocabulary
- Proper nouns

Return only a comma-separated list of terms.

Content:
%s`, content)
}

// buildMaskedQuestionPrompt builds the question generation prompt that
// forbids the extracted vocabulary.
func buildMaskedQuestionPrompt(content string, forbidden []string) string {
	forbiddenList := "none"
	if len(forbidden) > 0 {
		forbiddenList = strings.Join(forbidden, ", ")
	}
	return fmt.Sprintf(`Based on this Reddit discussion, create 1-2 sharp, specific evaluation questions that test the same knowledge discussed, but use completely different vocabulary.

IMPORTANT: These questions will be asked to an AI model with NO CONTEXT about this Reddit discussion. The model will receive only the question you generate as a standalone query. Avoid using "this"/etc to refer to the discussion.

FORBIDDEN TERMS (DO NOT USE): %s

Requirements:
- Questions should be answerable from the discussion content
- Use generic, abstract, or alternative terminology instead of specific terms
- Focus on the underlying concepts, principles, or problems discussed
- Make questions pointed and specific, not vague
- Avoid any words from the forbidden list
- Questions should sound natural, like someone genuinely asking for advice or information

Also identify which specific comments (by number) contain the key insights needed to answer your questions.

Return in this exact format:
QUESTIONS:
[your questions here]

KEY_COMMENTS:
[list comment numbers that contain essential insights, e.g., "1, 3, 5"]

Discussion Content:
%s`, forbiddenList, content)
}

// buildDirectQuestionPrompt builds the question generation prompt
// without vocabulary restrictions.
func buildDirectQuestionPrompt(content string) string {
	return fmt.Sprintf(`Based on this Reddit discussion, create 1-2 sharp, specific evaluation questions that test the knowledge discussed.

IMPORTANT: These questions will be asked to an AI model with NO CONTEXT about this Reddit discussion. The model will receive only the question you generate as a standalone query. Avoid using "this"/etc to refer to the discussion.

You may use specific terms, names, brands, and technical vocabulary from the discussion to create natural, direct questions.

Requirements:
- Questions should be answerable from the discussion content
- Use actual terminology and specific references from the discussion
- Focus on the concrete knowledge, procedures, or problems discussed
- Make questions pointed and specific, not vague
- Questions should sound natural, like someone genuinely asking for advice or information

Also identify which specific comments (by number) contain the key insights needed to answer your questions.

Return in this exact format:
QUESTIONS:
[your questions here]

KEY_COMMENTS:
[list comment numbers that contain essential insights, e.g., "1, 3, 5"]

Discussion Content:
%s`, content)
}
