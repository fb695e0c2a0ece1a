package relevance

import (
	"fmt"
	"strings"

	"github.com/nao1215/redditcorpus/internal/model"
)

// SystemPrompt states the relevance criterion and the answer format.
const SystemPrompt = `You classify Reddit posts for a research corpus.
For each post, answer "yes" only if it is directly related to AI used in hiring, recruitment, resume screening, or interview automation. Otherwise answer "no". Be very strict to avoid false positives.
Reply with a JSON object of the form {"answers": ["yes", "no", ...]} holding exactly one answer per post, in the order the posts are given.`

// answerSchema constrains structured output to the answers array.
const answerSchema = `{
  "type": "object",
  "properties": {
    "answers": {
      "type": "array",
      "items": {"type": "string", "enum": ["yes", "no"]}
    }
  },
  "required": ["answers"]
}`

// BuildPrompt enumerates the batch as numbered title/selftext pairs.
// Selftext longer than maxSelftext runes is truncated; zero keeps it whole.
func BuildPrompt(batch []model.PostCandidate, maxSelftext int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "There are %d posts.\n\n", len(batch))
	for i, p := range batch {
		fmt.Fprintf(&b, "%d. Title: %s\n   Selftext: %s\n\n",
			i+1, oneLine(p.Title), oneLine(truncate(p.Selftext, maxSelftext)))
	}
	return b.String()
}

// oneLine folds newlines so that post text cannot fake an indexed answer
// line or a new numbered entry.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
