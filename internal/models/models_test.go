package models

import "testing"

func TestRecordBeforeCreateGeneratesSortableIDs(t *testing.T) {
	var first, second Record
	if err := first.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if err := second.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if first.ID == "" || second.ID == "" {
		t.Fatal("expected record IDs to be generated")
	}
	if first.ID >= second.ID {
		t.Fatalf("expected IDs to sort by creation, got %q then %q", first.ID, second.ID)
	}
}

func TestRecordBeforeCreateKeepsExistingID(t *testing.T) {
	base := Record{ID: "fixed"}
	if err := base.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if base.ID != "fixed" {
		t.Fatalf("expected ID to be preserved, got %q", base.ID)
	}
}

func TestEmbeddedModelsUseRecordBeforeCreate(t *testing.T) {
	cases := []struct {
		name  string
		model func() *Record
	}{
		{"push_subscription", func() *Record {
			s := &PushSubscription{}
			return &s.Record
		}},
		{"mood_event", func() *Record {
			m := &MoodEvent{}
			return &m.Record
		}},
		{"delivery_report", func() *Record {
			r := &DeliveryReport{}
			return &r.Record
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			model := tc.model()
			if err := model.BeforeCreate(nil); err != nil {
				t.Fatalf("before create: %v", err)
			}
			if model.ID == "" {
				t.Fatal("expected ID to be generated")
			}
		})
	}
}

func TestMoodValid(t *testing.T) {
	for _, mood := range AllMoods() {
		if !mood.Valid() {
			t.Fatalf("expected %q to be valid", mood)
		}
		if mood.DefaultEmoji() == "" {
			t.Fatalf("expected %q to have a default emoji", mood)
		}
	}

	for _, mood := range []Mood{"", "HAPPY", "bored", " happy"} {
		if mood.Valid() {
			t.Fatalf("expected %q to be invalid", mood)
		}
	}
}
