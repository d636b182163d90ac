package stream

import "github.com/wispcompanion/core/internal/sentiment"

// toneEmotion maps the sentiment analyzer's dominant tone onto the
// parser's own closed emotion set, so a response with no [EMOTION:...]
// tag still gets a sensible expression instead of defaulting blindly to
// neutral.
var toneEmotion = map[sentiment.Tone]string{
	sentiment.TonePositive:    "happy",
	sentiment.ToneExcited:     "excited",
	sentiment.ToneNegative:    "sad",
	sentiment.ToneFrustrated:  "angry",
	sentiment.ToneQuestioning: "thinking",
	sentiment.ToneNeutral:     "neutral",
}

// classifyFallback assigns an emotion and mood from the clean response
// text when the model didn't emit an [EMOTION:...] tag itself.
func classifyFallback(text string) (emotion string, mood float64) {
	result := sentiment.Analyze(text)
	emotion, ok := toneEmotion[result.Tone]
	if !ok {
		emotion = "neutral"
	}
	return emotion, result.Mood
}
