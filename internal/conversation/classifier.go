package conversation

import "strings"

// Signal is the coarse intent read off one caller utterance.
type Signal int

const (
	SignalNone Signal = iota
	SignalObjection
	SignalInterest
)

// Classifier tags a caller utterance. Implementations must be safe
// for concurrent use.
type Classifier interface {
	Classify(utterance string) Signal
}

// KeywordClassifier matches case-insensitive substrings against two
// static lists. Objections take priority over interest when an
// utterance matches both.
type KeywordClassifier struct {
	objections []string
	interests  []string
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		objections: []string{
			"expensive", "budget", "cost", "money", "afford", "price",
			"busy", "time", "schedule", "timing",
			"not now", "not interested", "no thanks", "already have",
		},
		interests: []string{
			"interested", "sounds good", "tell me more", "yes",
			"great", "perfect", "excellent", "wonderful", "impressive",
		},
	}
}

func (c *KeywordClassifier) Classify(utterance string) Signal {
	lower := strings.ToLower(utterance)
	for _, kw := range c.objections {
		if strings.Contains(lower, kw) {
			return SignalObjection
		}
	}
	for _, kw := range c.interests {
		if strings.Contains(lower, kw) {
			return SignalInterest
		}
	}
	return SignalNone
}
