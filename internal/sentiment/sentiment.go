// Package sentiment implements a keyword-density analyzer: no model
// call, just a multilingual keyword table scanned per message. This
// mirrors the teacher's map-of-slices-as-design-constant convention
// (toolpolicy.ToolGroups) applied to a different domain.
package sentiment

import "strings"

// Tone is the dominant emotional class detected in a message.
type Tone string

const (
	ToneNeutral     Tone = "Neutral"
	TonePositive    Tone = "Positive"
	ToneNegative    Tone = "Negative"
	ToneQuestioning Tone = "Questioning"
	ToneExcited     Tone = "Excited"
	ToneFrustrated  Tone = "Frustrated"
)

// Result is the outcome of analyzing one message.
type Result struct {
	Mood       float64
	Tone       Tone
	Confidence float64
}

// keywordGroups holds the multilingual signal words per class, mirroring
// the teacher's group-of-strings constant style.
var keywordGroups = map[Tone][]string{
	TonePositive: {
		"happy", "great", "love", "wonderful", "glad", "awesome", "good", "nice", "thanks", "thank you",
		"feliz", "genial", "encanta", "maravilloso", "gracias",
		"content", "génial", "merci", "super",
		"glücklich", "toll", "danke", "super",
		"嬉しい", "最高", "ありがとう", "好き",
	},
	ToneNegative: {
		"sad", "bad", "hate", "terrible", "awful", "upset", "angry", "annoyed", "worried", "sorry",
		"triste", "malo", "odio", "terrible", "enojado",
		"déçu", "mauvais", "désolé",
		"traurig", "schlecht", "wütend", "leider",
		"悲しい", "最悪", "嫌い", "ごめん",
	},
	ToneQuestioning: {
		"?", "why", "how", "what", "when", "where", "who", "could you", "can you",
		"por qué", "cómo", "qué", "cuándo", "dónde",
		"pourquoi", "comment", "quoi", "quand",
		"warum", "wie", "was", "wann",
		"なぜ", "どう", "何", "いつ",
	},
	ToneExcited: {
		"!", "wow", "amazing", "excited", "can't wait", "yay", "woohoo",
		"increíble", "emocionado", "genial",
		"incroyable", "génial", "hâte",
		"unglaublich", "aufgeregt",
		"すごい", "興奮", "わくわく",
	},
	ToneFrustrated: {
		"ugh", "frustrated", "annoying", "fed up", "can't stand", "so done",
		"frustrado", "harto", "molesto",
		"frustré", "marre", "agaçant",
		"frustriert", "genervt", "satt",
		"イライラ", "うんざり",
	},
}

// moodByTone is the class-specific mood value a dominant tone produces.
var moodByTone = map[Tone]float64{
	TonePositive:    0.8,
	ToneExcited:     0.85,
	ToneNeutral:     0.5,
	ToneQuestioning: 0.5,
	ToneNegative:    0.2,
	ToneFrustrated:  0.15,
}

// Analyze scores a message's dominant emotional class by keyword
// density. Whenever both positive and negative keywords appear, mood is
// pulled toward neutral (to 30% of its distance from 0.5); a tie in
// counts goes to the class checked first (positive, then negative,
// questioning, excited, frustrated).
func Analyze(text string) Result {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return Result{Mood: 0.5, Tone: ToneNeutral, Confidence: 0}
	}

	counts := make(map[Tone]int, len(keywordGroups))
	total := 0
	for tone, words := range keywordGroups {
		for _, w := range words {
			n := strings.Count(lower, w)
			counts[tone] += n
			total += n
		}
	}

	if total == 0 {
		return Result{Mood: 0.5, Tone: ToneNeutral, Confidence: 0}
	}

	dominant := ToneNeutral
	best := 0
	for _, tone := range []Tone{TonePositive, ToneNegative, ToneQuestioning, ToneExcited, ToneFrustrated} {
		if counts[tone] > best {
			best = counts[tone]
			dominant = tone
		}
	}

	mood := moodByTone[dominant]
	if counts[TonePositive] > 0 && counts[ToneNegative] > 0 {
		mood = 0.5 + (mood-0.5)*0.3
	}

	confidence := float64(total) / (float64(len(text))/10 + 1)
	if confidence > 1 {
		confidence = 1
	}

	return Result{Mood: mood, Tone: dominant, Confidence: confidence}
}
