package notify

import "testing"

func TestTeeDeliversInOrder(t *testing.T) {
	var first, second Recorder
	n := Tee(&first, nil, &second)
	n.Notify(Notification{Level: LevelInfo, Source: "test", Message: "one"})
	n.Notify(Notification{Level: LevelError, Source: "test", Message: "two"})

	for name, rec := range map[string]*Recorder{"first": &first, "second": &second} {
		got := rec.All()
		if len(got) != 2 || got[0].Message != "one" || got[1].Message != "two" {
			t.Fatalf("%s recorder got %+v", name, got)
		}
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("expected Discard for nil notifier")
	}
	var rec Recorder
	OrDiscard(&rec).Notify(Notification{Message: "kept"})
	if len(rec.All()) != 1 {
		t.Fatalf("expected notification to reach recorder")
	}
}
