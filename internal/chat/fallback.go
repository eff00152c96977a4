package chat

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Category is a fallback response class.
type Category string

const (
	CategoryGreeting Category = "greeting"
	CategoryStatus   Category = "status"
	CategoryThanks   Category = "thanks"
	CategoryWeather  Category = "weather"
	CategoryTime     Category = "time"
	CategoryHelp     Category = "help"
	CategoryFarewell Category = "farewell"
	CategoryDefault  Category = "default"
)

// categoryKeywords maps each category to its trigger substrings. Order
// matters: the first category with a matching keyword wins.
var categoryOrder = []Category{
	CategoryGreeting,
	CategoryStatus,
	CategoryThanks,
	CategoryWeather,
	CategoryTime,
	CategoryHelp,
	CategoryFarewell,
}

var categoryKeywords = map[Category][]string{
	CategoryGreeting: {"hello", "hi there", "hey", "good morning", "good afternoon", "good evening"},
	CategoryStatus:   {"how are you", "how's it going", "how is it going", "how are things"},
	CategoryThanks:   {"thank", "thanks", "appreciate"},
	CategoryWeather:  {"weather", "forecast", "raining", "sunny", "temperature"},
	CategoryTime:     {"what time", "time is it", "current time", "clock"},
	CategoryHelp:     {"help", "assist", "support", "what can you do"},
	CategoryFarewell: {"bye", "goodbye", "see you", "farewell", "good night"},
}

var categoryResponses = map[Category][]string{
	CategoryGreeting: {
		"Hello! How can I help you today?",
		"Hi! What can I do for you?",
		"Hey there! What's on your mind?",
	},
	CategoryStatus: {
		"I'm doing well, thanks for asking! How can I help?",
		"All good here. What can I do for you?",
	},
	CategoryThanks: {
		"You're welcome!",
		"Happy to help!",
		"Anytime!",
	},
	CategoryWeather: {
		"I don't have access to live weather data, but I hope it's nice where you are!",
		"I can't check the forecast right now, sorry.",
	},
	CategoryHelp: {
		"I can answer questions using the documents I have stored. Ask me anything!",
		"Ask me a question and I'll do my best to answer from what I know.",
	},
	CategoryFarewell: {
		"Goodbye! Come back anytime.",
		"See you later!",
		"Take care!",
	},
	CategoryDefault: {
		"That's an interesting question. Could you tell me more?",
		"I'm not sure I follow. Could you rephrase that?",
		"I don't have a good answer for that right now, but I'm happy to try again.",
	},
}

// Responder is the deterministic keyword responder used when the LLM backend
// is unavailable. Classification is a pure function of the lowercased input;
// the chosen canned string within a category varies run to run.
type Responder struct {
	rng *rand.Rand
	now func() time.Time
}

// NewResponder creates a responder seeded from the current time.
func NewResponder() *Responder {
	return &Responder{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// Classify returns the response category for message. The first category in
// the fixed order with a matching keyword wins; no match yields
// CategoryDefault.
func (r *Responder) Classify(message string) Category {
	lower := strings.ToLower(message)
	for _, cat := range categoryOrder {
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(lower, kw) {
				return cat
			}
		}
	}
	return CategoryDefault
}

// Respond returns a canned reply for message. The time category interpolates
// the current wall-clock time instead of a fixed string.
func (r *Responder) Respond(message string) string {
	cat := r.Classify(message)
	if cat == CategoryTime {
		return fmt.Sprintf("It's currently %s.", r.now().Format("3:04 PM"))
	}
	choices := categoryResponses[cat]
	return choices[r.rng.Intn(len(choices))]
}
