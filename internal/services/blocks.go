package services

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"alfredoptarigan/nexus-talent/internal/models"
)

type BlockKind string

const (
	BlockText           BlockKind = "text"
	BlockCode           BlockKind = "code"
	BlockCandidates     BlockKind = "candidates"
	BlockLinkedInSearch BlockKind = "linkedin_search"
)

// LinkedInSearch is a Boolean search string the recruiter can paste into
// LinkedIn.
type LinkedInSearch struct {
	SearchQuery string `json:"searchQuery"`
	Explanation string `json:"explanation"`
	SearchURL   string `json:"searchUrl"`
}

// Block is one renderable piece of an assistant message. Structured blocks
// that fail to parse come back as plain code blocks with Error set.
type Block struct {
	Kind       BlockKind          `json:"kind"`
	Language   string             `json:"language,omitempty"`
	Content    string             `json:"content"`
	Candidates []models.Candidate `json:"candidates,omitempty"`
	Search     *LinkedInSearch    `json:"search,omitempty"`
	Error      string             `json:"error,omitempty"`
}

const (
	candidatesParseError = "Error parsing candidate data."
	searchParseError     = "Error parsing LinkedIn search data."
)

type suggestedSearch struct {
	SearchQuery *string `json:"searchQuery"`
	Explanation *string `json:"explanation"`
}

var (
	fencedBlock   = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)[ \\t]*\\r?\\n(.*?)```")
	lineBreaks    = regexp.MustCompile(`\r\n|\n|\r`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

const linkedInPeopleSearch = "https://www.linkedin.com/search/results/people/?keywords="

// ParseBlocks splits an assistant message into text and fenced blocks,
// decoding candidates and linkedin_search payloads.
func ParseBlocks(text string) []Block {
	var blocks []Block
	last := 0
	for _, m := range fencedBlock.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			if seg := text[last:m[0]]; strings.TrimSpace(seg) != "" {
				blocks = append(blocks, Block{Kind: BlockText, Content: seg})
			}
		}
		lang := text[m[2]:m[3]]
		body := text[m[4]:m[5]]
		blocks = append(blocks, parseFenced(lang, body))
		last = m[1]
	}
	if last < len(text) {
		if seg := text[last:]; strings.TrimSpace(seg) != "" {
			blocks = append(blocks, Block{Kind: BlockText, Content: seg})
		}
	}
	if blocks == nil {
		blocks = []Block{}
	}
	return blocks
}

func parseFenced(lang, body string) Block {
	raw := Block{Kind: BlockCode, Language: lang, Content: body}
	switch lang {
	case "candidates":
		candidates, err := ParseCandidates(body)
		if err != nil {
			raw.Error = candidatesParseError
			return raw
		}
		return Block{Kind: BlockCandidates, Language: lang, Content: body, Candidates: candidates}
	case "linkedin_search":
		var in suggestedSearch
		if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &in); err != nil || in.SearchQuery == nil || in.Explanation == nil {
			raw.Error = searchParseError
			return raw
		}
		s := LinkedInSearch{
			SearchQuery: *in.SearchQuery,
			Explanation: *in.Explanation,
			SearchURL:   linkedInPeopleSearch + url.QueryEscape(*in.SearchQuery),
		}
		return Block{Kind: BlockLinkedInSearch, Language: lang, Content: body, Search: &s}
	default:
		return raw
	}
}

type suggestedCandidate struct {
	Name    *string  `json:"name"`
	Match   *float64 `json:"match"`
	Summary *string  `json:"summary"`
}

// ParseCandidates decodes a candidates payload. Line breaks and trailing
// commas are repaired first; if that still fails, stray quotes inside string
// values are escaped and decoding is tried once more. Every entry must carry
// a name, a numeric match and a summary.
func ParseCandidates(body string) ([]models.Candidate, error) {
	cleaned := lineBreaks.ReplaceAllString(strings.TrimSpace(body), " ")
	cleaned = trailingComma.ReplaceAllString(cleaned, "$1")

	candidates, err := decodeCandidates(cleaned)
	if err != nil {
		candidates, err = decodeCandidates(escapeStrayQuotes(cleaned))
		if err != nil {
			return nil, err
		}
	}
	return candidates, nil
}

func decodeCandidates(s string) ([]models.Candidate, error) {
	var required []suggestedCandidate
	if err := json.Unmarshal([]byte(s), &required); err != nil {
		return nil, err
	}
	for _, c := range required {
		if c.Name == nil || c.Match == nil || c.Summary == nil {
			return nil, errInvalidCandidates
		}
	}
	var candidates []models.Candidate
	if err := json.Unmarshal([]byte(s), &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

var errInvalidCandidates = jsonShapeError("candidate entries need name, match and summary")

type jsonShapeError string

func (e jsonShapeError) Error() string { return string(e) }

// escapeStrayQuotes escapes every double quote that is neither preceded by
// one of `:{,[` or whitespace nor followed by one of `:}],` or whitespace.
// Such quotes can only sit inside a string value.
func escapeStrayQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '"' {
			b.WriteByte(c)
			continue
		}
		openerBefore := i > 0 && strings.IndexByte(":{,[ \t\n\r\f\v", s[i-1]) >= 0
		closerAfter := i+1 < len(s) && strings.IndexByte(":}], \t\n\r\f\v", s[i+1]) >= 0
		if openerBefore || closerAfter {
			b.WriteByte(c)
			continue
		}
		b.WriteString(`\"`)
	}
	return b.String()
}
