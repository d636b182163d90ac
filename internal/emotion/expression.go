package emotion

import "math"

// Frame is a snapshot of avatar expression parameters for the frontend
// to render a single pose against.
type Frame struct {
	BlinkRate      float64
	MouthCurve     float64 // [-1, 1]
	EyebrowPos     float64 // [-1, 1]
	EyeOpenness    float64 // [0, 1]
	HeadTilt       float64 // [-1, 1]
	Intensity      float64 // [0, 1]
}

// baseFrame tabulates the resting expression for each of the closed
// set of emotion names the stream parser recognises (internal/stream's
// validEmotions), before expressiveness/intensity scaling is applied.
var baseFrame = map[string]Frame{
	"neutral":   {BlinkRate: 0.3, MouthCurve: 0, EyebrowPos: 0, EyeOpenness: 0.8, HeadTilt: 0},
	"happy":     {BlinkRate: 0.25, MouthCurve: 0.6, EyebrowPos: 0.2, EyeOpenness: 0.85, HeadTilt: 0.1},
	"sad":       {BlinkRate: 0.4, MouthCurve: -0.5, EyebrowPos: -0.3, EyeOpenness: 0.6, HeadTilt: -0.1},
	"angry":     {BlinkRate: 0.2, MouthCurve: -0.6, EyebrowPos: -0.7, EyeOpenness: 0.7, HeadTilt: -0.05},
	"surprised": {BlinkRate: 0.1, MouthCurve: 0.2, EyebrowPos: 0.8, EyeOpenness: 1.0, HeadTilt: 0.05},
	"thinking":  {BlinkRate: 0.2, MouthCurve: -0.1, EyebrowPos: 0.3, EyeOpenness: 0.6, HeadTilt: 0.2},
	"shy":       {BlinkRate: 0.45, MouthCurve: 0.3, EyebrowPos: 0.1, EyeOpenness: 0.5, HeadTilt: -0.2},
	"smug":      {BlinkRate: 0.2, MouthCurve: 0.5, EyebrowPos: 0.4, EyeOpenness: 0.6, HeadTilt: 0.15},
	"worried":   {BlinkRate: 0.5, MouthCurve: -0.3, EyebrowPos: -0.4, EyeOpenness: 0.75, HeadTilt: -0.1},
	"excited":   {BlinkRate: 0.15, MouthCurve: 0.8, EyebrowPos: 0.5, EyeOpenness: 0.9, HeadTilt: 0.25},
}

// ExpressionFrame synthesizes the current render-ready frame for this
// state, deriving the mood trend from the recent mood history so
// callers (the Heartbeat) don't need to reach into internal fields.
func (s *State) ExpressionFrame() Frame {
	s.mu.Lock()
	emotion := s.currentEmotion
	mood := s.mood
	expressiveness := s.personality.Expressiveness
	trend := 0.0
	if n := len(s.moodHistory); n >= 2 {
		trend = s.moodHistory[n-1] - s.moodHistory[0]
	}
	s.mu.Unlock()
	return Expression(emotion, mood, trend, expressiveness)
}

// Expression synthesizes a render-ready frame for the given emotion,
// mood, mood trend (positive == improving), and expressiveness. Exact
// base values per emotion are the tabulated design constants above;
// intensity scales by both expressiveness and the mood's distance from
// the 0.5 neutral midpoint.
func Expression(emotionName string, mood, trend, expressiveness float64) Frame {
	base, ok := baseFrame[emotionName]
	if !ok {
		base = baseFrame["neutral"]
	}

	intensity := clamp(expressiveness*(0.5+math.Abs(mood-0.5)), 0, 1)

	headTiltTrendBias := clamp(trend, -1, 1) * 0.05

	return Frame{
		BlinkRate:   base.BlinkRate,
		MouthCurve:  clamp(base.MouthCurve*intensity, -1, 1),
		EyebrowPos:  clamp(base.EyebrowPos*intensity, -1, 1),
		EyeOpenness: clamp(base.EyeOpenness, 0, 1),
		HeadTilt:    clamp(base.HeadTilt*intensity+headTiltTrendBias, -1, 1),
		Intensity:   intensity,
	}
}
