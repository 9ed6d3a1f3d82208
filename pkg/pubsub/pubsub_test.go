package pubsub

import "testing"

func TestChannelToTopicAndKey(t *testing.T) {
	topic, key, err := channelToTopicAndKey(UserNotificationChannel("USER123"))
	if err != nil {
		t.Fatalf("channel to topic: %v", err)
	}
	if topic != "notify-events" {
		t.Errorf("topic = %q, want notify-events", topic)
	}
	if key != "USER123" {
		t.Errorf("key = %q, want USER123", key)
	}
}

func TestChannelToTopicAndKeyRejectsMalformed(t *testing.T) {
	for _, channel := range []string{"", "notify", "notify:room:x:events", "a:user:b:c:d"} {
		if _, _, err := channelToTopicAndKey(channel); err == nil {
			t.Errorf("channel %q: expected error", channel)
		}
	}
}

func TestEventPayloadRoundTrip(t *testing.T) {
	payload := NotificationPayload{
		NotificationID: "n1",
		ActorID:        "alice",
		RecipientID:    "bob",
		Kind:           "like",
	}
	ev, err := NewEvent(EventNotificationCreated, "bob", payload)
	if err != nil {
		t.Fatalf("new event: %v", err)
	}

	var got NotificationPayload
	if err := ev.UnmarshalPayload(&got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got != payload {
		t.Errorf("payload = %+v, want %+v", got, payload)
	}
}
