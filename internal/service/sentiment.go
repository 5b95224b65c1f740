package service

import (
	"math"
	"regexp"
	"strings"
)

// Sentiment categories derived from a score.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Sentiment modes: trust the score sent by the client or recompute it.
const (
	SentimentModeClient = "client"
	SentimentModeServer = "server"
)

var (
	positiveWords = []string{
		"love", "great", "amazing", "awesome", "excellent", "wonderful", "fantastic",
		"happy", "joy", "beautiful", "perfect", "best", "good", "nice", "super",
		"brilliant", "excited", "thank", "thanks", "appreciate", "like", "enjoy",
		"lovely", "glad", "delighted", "pleased", "satisfied", "impressed",
	}
	negativeWords = []string{
		"hate", "bad", "terrible", "awful", "horrible", "worst", "poor", "sad",
		"angry", "disappointed", "disgusting", "annoying", "annoyed", "frustrating",
		"frustrated", "upset", "unhappy", "dislike", "boring", "useless", "waste",
		"pathetic", "ridiculous", "stupid", "sucks", "fail", "failed",
	}
	strongPositive = []string{
		"absolutely love", "so happy", "very good", "really great", "so excited",
		"super happy", "extremely happy", "love it", "loved it",
	}
	strongNegative = []string{
		"absolutely hate", "so sad", "very bad", "really terrible", "so disappointed",
		"super angry", "extremely upset", "hate it", "hated it",
	}

	positiveRes = wordPatterns(positiveWords)
	negativeRes = wordPatterns(negativeWords)
	capsWord    = regexp.MustCompile(`\b[A-Z]{3,}\b`)
)

func wordPatterns(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}

func countMatches(text string, res []*regexp.Regexp) int {
	n := 0
	for _, re := range res {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return n
}

// AnalyzeSentiment scores text in [0,1] with a keyword lexicon.  Empty text
// scores a neutral 0.5.
func AnalyzeSentiment(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0.5
	}
	lower := strings.ToLower(text)
	score := 0.5

	for _, p := range strongPositive {
		if strings.Contains(lower, p) {
			score += 0.15
		}
	}
	for _, p := range strongNegative {
		if strings.Contains(lower, p) {
			score -= 0.15
		}
	}

	total := len(strings.Fields(lower))
	if total == 0 {
		total = 1
	}
	pos := countMatches(lower, positiveRes)
	neg := countMatches(lower, negativeRes)
	score += float64(pos) / float64(total) * 0.5
	score -= float64(neg) / float64(total) * 0.5

	if excl := strings.Count(text, "!"); excl > 0 && pos > neg {
		score += math.Min(0.05*float64(excl), 0.15)
	}
	if strings.Count(text, "?") > 2 {
		score -= 0.05
	}
	if capsWord.MatchString(text) {
		if pos > neg {
			score += 0.1
		} else if neg > pos {
			score -= 0.1
		}
	}
	return math.Max(0, math.Min(1, score))
}

// SentimentCategory buckets a score.
func SentimentCategory(score float64) string {
	switch {
	case score >= 0.6:
		return SentimentPositive
	case score >= 0.3:
		return SentimentNeutral
	default:
		return SentimentNegative
	}
}

// resolveSentiment applies the configured mode to a submitted score.  In
// client mode an out-of-range score is dropped; in server mode the score is
// always recomputed.  The result is rounded to two decimals.
func resolveSentiment(mode, content string, submitted *float64) *float64 {
	var v float64
	switch mode {
	case SentimentModeServer:
		v = AnalyzeSentiment(content)
	default:
		if submitted == nil || math.IsNaN(*submitted) || *submitted < 0 || *submitted > 1 {
			return nil
		}
		v = *submitted
	}
	v = math.Round(v*100) / 100
	return &v
}
