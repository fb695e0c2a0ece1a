package relevance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// indexedLine matches "3: yes", "3. no", "3) Yes" and "Post 3 - no".
var indexedLine = regexp.MustCompile(`(?i)^\s*(?:post\s*)?(\d+)\s*[:.)\-]\s*(yes|no)\b`)

// ParseAnswers maps a classifier answer to n booleans.
func ParseAnswers(answer string, n int) ([]bool, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, fmt.Errorf("%w: empty answer", ErrClassifierMismatch)
	}

	if out, ok, err := parseJSON(answer, n); ok {
		return out, err
	}
	if out, ok, err := parseIndexed(answer, n); ok {
		return out, err
	}
	return parseTokens(answer, n)
}

// parseJSON reports ok when the answer contains a JSON object with an
// answers field, possibly wrapped in a code fence.
func parseJSON(answer string, n int) ([]bool, bool, error) {
	start := strings.IndexByte(answer, '{')
	end := strings.LastIndexByte(answer, '}')
	if start < 0 || end <= start {
		return nil, false, nil
	}

	var payload struct {
		Answers []string `json:"answers"`
	}
	if err := json.Unmarshal([]byte(answer[start:end+1]), &payload); err != nil || payload.Answers == nil {
		return nil, false, nil
	}

	if len(payload.Answers) != n {
		return nil, true, fmt.Errorf("%w: %d answers for %d posts", ErrClassifierMismatch, len(payload.Answers), n)
	}
	out := make([]bool, n)
	for i, a := range payload.Answers {
		v, ok := yesNo(a)
		if !ok {
			return nil, true, fmt.Errorf("%w: answer %d is %q", ErrClassifierMismatch, i+1, a)
		}
		out[i] = v
	}
	return out, true, nil
}

// parseIndexed reports ok when at least one line is an indexed answer.
// Every index from 1 to n must appear exactly once.
func parseIndexed(answer string, n int) ([]bool, bool, error) {
	out := make([]bool, n)
	seen := make([]bool, n)
	found := 0
	for _, line := range strings.Split(answer, "\n") {
		m := indexedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 1 || idx > n || seen[idx-1] {
			return nil, true, fmt.Errorf("%w: unexpected index in %q", ErrClassifierMismatch, strings.TrimSpace(line))
		}
		seen[idx-1] = true
		out[idx-1], _ = yesNo(m[2])
		found++
	}
	if found == 0 {
		return nil, false, nil
	}
	if found != n {
		return nil, true, fmt.Errorf("%w: %d indexed answers for %d posts", ErrClassifierMismatch, found, n)
	}
	return out, true, nil
}

// parseTokens splits on commas, semicolons and whitespace. Every token
// must be yes or no.
func parseTokens(answer string, n int) ([]bool, error) {
	tokens := strings.FieldsFunc(answer, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r' || r == '\t' || r == ' '
	})
	out := make([]bool, 0, len(tokens))
	for _, tok := range tokens {
		v, ok := yesNo(tok)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected token %q", ErrClassifierMismatch, tok)
		}
		out = append(out, v)
	}
	if len(out) != n {
		return nil, fmt.Errorf("%w: %d answers for %d posts", ErrClassifierMismatch, len(out), n)
	}
	return out, nil
}

func yesNo(s string) (bool, bool) {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(s), `."'`)) {
	case "yes":
		return true, true
	case "no":
		return false, true
	default:
		return false, false
	}
}
