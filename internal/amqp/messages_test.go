package amqp

import "testing"

func TestChangeMessageRoundTrip(t *testing.T) {
	msg := NewChangeMessage(EntityTransaction, 42, 3)
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := ChangeMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Entity != EntityTransaction || got.ID != 42 || got.Version != 3 || got.Deleted {
		t.Errorf("round trip = %+v", got)
	}
}

func TestDeleteMessage(t *testing.T) {
	msg := NewDeleteMessage(EntityHabitLog, 7)
	if !msg.Deleted || msg.Entity != EntityHabitLog {
		t.Errorf("NewDeleteMessage = %+v", msg)
	}
}

func TestChangeMessageFromJSONInvalid(t *testing.T) {
	if _, err := ChangeMessageFromJSON([]byte("{")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
