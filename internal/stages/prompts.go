package stages

import (
	"fmt"
	"strings"

	"github.com/strandworks/deepresearch/internal/engine"
	"github.com/strandworks/deepresearch/internal/util"
)

// buildPlanPrompt asks for the initial batch of search queries.
func buildPlanPrompt(topic string, maxQueries int) string {
	var sb strings.Builder

	sb.WriteString(`You are a research planner. Given a research topic, generate focused web
search queries that together cover the topic's key aspects.

## Guidelines:
- Generate specific, searchable queries (not vague questions)
- Each query should target a distinct aspect of the topic
- Keep queries concise but descriptive

`)
	sb.WriteString(fmt.Sprintf("Maximum queries to generate: %d\n\n", maxQueries))
	sb.WriteString(fmt.Sprintf("## Topic:\n%s\n\n", topic))
	sb.WriteString(`## Response Format:
Return a JSON object:
{
  "queries": ["first search query", "second search query"]
}
`)
	return sb.String()
}

// buildEvaluationPrompt asks whether the gathered evidence suffices and, if
// not, which follow-up queries would fill the gaps.
func buildEvaluationPrompt(topic string, results []engine.SearchResult) string {
	var sb strings.Builder

	sb.WriteString(`You are a research sufficiency evaluator. Decide whether the collected search
results contain enough substantive information to write a thorough report on
the topic.

## Evaluation Criteria:
- Specific facts, figures, dates, and names count as coverage
- "No information found" statements and generic filler do NOT count
- If coverage is insufficient, propose follow-up queries targeting the gaps

`)
	sb.WriteString(fmt.Sprintf("## Topic:\n%s\n\n", topic))
	sb.WriteString("## Collected Results:\n\n")
	writeResultList(&sb, results)
	sb.WriteString(`## Response Format:
Return a JSON object:
{
  "is_complete": false,
  "follow_up_queries": ["query targeting a gap"]
}
`)
	return sb.String()
}

// buildFilterPrompt asks for a ranked subset of result positions.
func buildFilterPrompt(topic string, results []engine.SearchResult, maxKeep int) string {
	var sb strings.Builder

	sb.WriteString(`You are a research result filter. Rank the results below by relevance to the
topic and return the positions of the ones worth keeping, best first. Drop
off-topic, duplicate, and low-quality results.

`)
	sb.WriteString(fmt.Sprintf("Keep at most %d results.\n\n", maxKeep))
	sb.WriteString(fmt.Sprintf("## Topic:\n%s\n\n", topic))
	sb.WriteString("## Results (numbered from 1):\n\n")
	writeResultList(&sb, results)
	sb.WriteString(`## Response Format:
Return a JSON object with 1-based positions:
{
  "positions": [3, 1, 7]
}
`)
	return sb.String()
}

// buildWritePrompt asks for the final report.
func buildWritePrompt(topic string, results []engine.SearchResult) string {
	var sb strings.Builder

	sb.WriteString(`You are a research report writer. Write a well-structured markdown report on
the topic using only the source material below.

## Guidelines:
- Start with a single top-level heading ("# ...") naming the report
- Organize the body with subheadings
- Ground every claim in the source material; do not invent facts
- Note explicitly where the sources are thin or contradictory

`)
	sb.WriteString(fmt.Sprintf("## Topic:\n%s\n\n", topic))
	sb.WriteString("## Source Material:\n\n")
	writeResultList(&sb, results)
	return sb.String()
}

// buildRefinePrompt asks for a compact summary of one result's content as it
// relates to the query that found it.
func buildRefinePrompt(query string, result engine.SearchResult) string {
	var sb strings.Builder

	sb.WriteString("Summarize the following page content in a few sentences, keeping only what is relevant to the search query.\n\n")
	sb.WriteString(fmt.Sprintf("## Search Query:\n%s\n\n", query))
	sb.WriteString(fmt.Sprintf("## Page Title:\n%s\n\n", result.Title))
	sb.WriteString(fmt.Sprintf("## Content:\n%s\n", util.TruncateString(result.Content, 4000)))
	return sb.String()
}

// writeResultList renders results as a numbered list, refined content
// preferred over raw.
func writeResultList(sb *strings.Builder, results []engine.SearchResult) {
	for i, r := range results {
		content := r.Content
		if r.RefinedContent != "" {
			content = r.RefinedContent
		}
		sb.WriteString(fmt.Sprintf("### %d. %s\n", i+1, r.Title))
		if r.Link != "" {
			sb.WriteString(fmt.Sprintf("Source: %s\n", r.Link))
		}
		sb.WriteString(fmt.Sprintf("%s\n\n", util.TruncateString(content, 2000)))
	}
}
