package models

// Mood is one of the closed set of mood categories.
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodSad     Mood = "sad"
	MoodExcited Mood = "excited"
	MoodCalm    Mood = "calm"
	MoodAnxious Mood = "anxious"
	MoodAngry   Mood = "angry"
	MoodTired   Mood = "tired"
	MoodLoved   Mood = "loved"
)

var moodEmoji = map[Mood]string{
	MoodHappy:   "😊",
	MoodSad:     "😢",
	MoodExcited: "🤩",
	MoodCalm:    "😌",
	MoodAnxious: "😰",
	MoodAngry:   "😠",
	MoodTired:   "😴",
	MoodLoved:   "🥰",
}

// AllMoods returns the allowed moods in display order.
func AllMoods() []Mood {
	return []Mood{MoodHappy, MoodSad, MoodExcited, MoodCalm, MoodAnxious, MoodAngry, MoodTired, MoodLoved}
}

// Valid reports whether m belongs to the allowed set.
func (m Mood) Valid() bool {
	_, ok := moodEmoji[m]
	return ok
}

// DefaultEmoji returns the glyph clients show for m, or an empty string for unknown moods.
func (m Mood) DefaultEmoji() string {
	return moodEmoji[m]
}

func (m Mood) String() string {
	return string(m)
}
