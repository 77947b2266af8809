package models

// Emotion names in feature order. Corpus headers and output columns use these.
const (
	EmotionAngry    = "Angry"
	EmotionFear     = "Fear"
	EmotionHappy    = "Happy"
	EmotionSad      = "Sad"
	EmotionSurprise = "Surprise"
)

// EmotionNames lists the emotion dimensions in feature order
var EmotionNames = []string{EmotionAngry, EmotionFear, EmotionHappy, EmotionSad, EmotionSurprise}

// EmotionVector holds five intensity scores. A nil field is undefined, which is
// not the same as a zero score: a vector with every field nil means the text was
// absent or could not be scored and must never reach the classifier.
type EmotionVector struct {
	Angry    *float64 `json:"angry"`
	Fear     *float64 `json:"fear"`
	Happy    *float64 `json:"happy"`
	Sad      *float64 `json:"sad"`
	Surprise *float64 `json:"surprise"`
}

// NullEmotion returns the all-undefined vector
func NullEmotion() EmotionVector {
	return EmotionVector{}
}

// NewEmotionVector builds a fully defined vector
func NewEmotionVector(angry, fear, happy, sad, surprise float64) EmotionVector {
	return EmotionVector{
		Angry:    &angry,
		Fear:     &fear,
		Happy:    &happy,
		Sad:      &sad,
		Surprise: &surprise,
	}
}

// EmotionVectorFromMap builds a vector from name -> score. Missing names stay nil.
func EmotionVectorFromMap(scores map[string]float64) EmotionVector {
	var v EmotionVector
	for _, name := range EmotionNames {
		if score, ok := scores[name]; ok {
			v.set(name, score)
		}
	}
	return v
}

func (v *EmotionVector) set(name string, score float64) {
	s := score
	switch name {
	case EmotionAngry:
		v.Angry = &s
	case EmotionFear:
		v.Fear = &s
	case EmotionHappy:
		v.Happy = &s
	case EmotionSad:
		v.Sad = &s
	case EmotionSurprise:
		v.Surprise = &s
	}
}

// Fields returns the five fields in feature order
func (v EmotionVector) Fields() [5]*float64 {
	return [5]*float64{v.Angry, v.Fear, v.Happy, v.Sad, v.Surprise}
}

// Complete reports whether all five scores are defined
func (v EmotionVector) Complete() bool {
	for _, f := range v.Fields() {
		if f == nil {
			return false
		}
	}
	return true
}

// IsNull reports whether every score is undefined
func (v EmotionVector) IsNull() bool {
	for _, f := range v.Fields() {
		if f != nil {
			return false
		}
	}
	return true
}

// Features returns the scores as a feature slice; ok is false unless Complete.
func (v EmotionVector) Features() (features []float64, ok bool) {
	if !v.Complete() {
		return nil, false
	}
	features = make([]float64, 0, len(EmotionNames))
	for _, f := range v.Fields() {
		features = append(features, *f)
	}
	return features, true
}
