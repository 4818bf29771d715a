package push

import (
	"encoding/json"
	"time"

	"github.com/charlesng35/moodtracker/internal/models"
)

// Notification tags. The service worker collapses notifications sharing a tag.
const (
	TagMoodUpdate = "mood-update"
	TagTest       = "test-notification"
	TagReminder   = "mood-reminder"
)

// Action is a button rendered on the notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// NotificationPayload is the JSON document handed to the push service. It is
// built per dispatch and never stored.
type NotificationPayload struct {
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	Icon    string         `json:"icon,omitempty"`
	Badge   string         `json:"badge,omitempty"`
	Tag     string         `json:"tag,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Actions []Action       `json:"actions,omitempty"`
}

// Encode serialises the payload for delivery.
func (p NotificationPayload) Encode() ([]byte, error) {
	return json.Marshal(p)
}

type moodTemplate struct {
	title string
	body  string
}

var moodTemplates = map[models.Mood]moodTemplate{
	models.MoodHappy:   {"Feeling happy", "Good vibes all around. Share the joy!"},
	models.MoodSad:     {"Feeling sad", "A kind word could go a long way right now."},
	models.MoodExcited: {"Feeling excited", "Something great is happening!"},
	models.MoodCalm:    {"Feeling calm", "Peaceful and relaxed."},
	models.MoodAnxious: {"Feeling anxious", "Maybe check in and offer some support."},
	models.MoodAngry:   {"Feeling angry", "Some space and patience might help."},
	models.MoodTired:   {"Feeling tired", "Time for a little rest."},
	models.MoodLoved:   {"Feeling loved", "Love is in the air."},
}

var genericMoodTemplate = moodTemplate{"Mood updated", "A new mood was just recorded."}

// Composer builds payloads with the icon, badge and landing URL configured at startup.
type Composer struct {
	Icon  string
	Badge string
	URL   string
}

// NewComposer returns a Composer, defaulting the landing URL to the app root.
func NewComposer(icon, badge, url string) Composer {
	if url == "" {
		url = "/"
	}
	return Composer{Icon: icon, Badge: badge, URL: url}
}

// MoodPayload selects the template for the event's mood, falling back to a
// generic message for moods without one.
func (c Composer) MoodPayload(event models.MoodEvent) NotificationPayload {
	tmpl, ok := moodTemplates[event.Mood]
	if !ok {
		tmpl = genericMoodTemplate
	}

	title := tmpl.title
	if event.Emoji != "" {
		title = event.Emoji + " " + title
	}

	return c.build(title, tmpl.body, TagMoodUpdate, map[string]any{
		"mood":      string(event.Mood),
		"emoji":     event.Emoji,
		"timestamp": event.Timestamp.UTC().Format(time.RFC3339),
	})
}

// TestPayload is sent by the test-notification endpoint.
func (c Composer) TestPayload() NotificationPayload {
	return c.build("Test notification", "Push notifications are working!", TagTest, nil)
}

// ReminderPayload is sent by the scheduled reminder job.
func (c Composer) ReminderPayload(title, body string) NotificationPayload {
	if title == "" {
		title = "How are you feeling?"
	}
	if body == "" {
		body = "Take a moment to log your mood."
	}
	return c.build(title, body, TagReminder, nil)
}

func (c Composer) build(title, body, tag string, data map[string]any) NotificationPayload {
	if data == nil {
		data = make(map[string]any, 1)
	}
	data["url"] = c.URL

	return NotificationPayload{
		Title: title,
		Body:  body,
		Icon:  c.Icon,
		Badge: c.Badge,
		Tag:   tag,
		Data:  data,
		Actions: []Action{
			{Action: "view", Title: "View"},
			{Action: "close", Title: "Close"},
		},
	}
}
