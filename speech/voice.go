package speech

import "strings"

// Voice describes a synthesis voice offered by the platform.
type Voice struct {
	ID       string
	Name     string
	Language string // BCP 47 tag, e.g. "en-US"
	Local    bool   // synthesized on-device, usually lower quality
	Quality  string // engine-specific, e.g. "low", "medium", "high"
}

// IsZero reports whether v is the platform default voice.
func (v Voice) IsZero() bool {
	return v.ID == "" && v.Name == ""
}

// IsEnglish reports whether the voice speaks English.
func (v Voice) IsEnglish() bool {
	lang := strings.ToLower(v.Language)
	return lang == "en" || strings.HasPrefix(lang, "en-") || strings.HasPrefix(lang, "en_")
}

func (v Voice) highQuality() bool {
	return !v.Local || strings.EqualFold(v.Quality, "high")
}

// PickVoice chooses the best voice: an English network or high-quality voice
// if there is one, else any English voice, else the platform default. ok is
// false when the platform default was chosen.
func PickVoice(voices []Voice) (v Voice, ok bool) {
	var fallback *Voice
	for i := range voices {
		if !voices[i].IsEnglish() {
			continue
		}
		if voices[i].highQuality() {
			return voices[i], true
		}
		if fallback == nil {
			fallback = &voices[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Voice{}, false
}
