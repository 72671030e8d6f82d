package bus

import (
	"fmt"
	"io"
	"testing"

	log "github.com/sirupsen/logrus"
)

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func TestDeliveryInRegistrationOrder(t *testing.T) {
	b := New(quietLogger())
	var got []string
	b.Subscribe("e", func(any) { got = append(got, "first") })
	b.Subscribe("e", func(any) { got = append(got, "second") })
	b.Subscribe("other", func(any) { got = append(got, "wrong channel") })

	b.Publish("e", nil)

	want := []string{"first", "second"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New(quietLogger())
	calls := 0
	unsub := b.Subscribe("e", func(any) { calls++ })

	b.Publish("e", nil)
	unsub()
	b.Publish("e", nil)
	unsub() // second call is a no-op

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPanickingHandlerDoesNotBlockOthers(t *testing.T) {
	b := New(quietLogger())
	reached := false
	b.Subscribe("e", func(any) { panic("boom") })
	b.Subscribe("e", func(any) { reached = true })

	b.Publish("e", "payload")

	if !reached {
		t.Error("handler after the panicking one never ran")
	}
}

func TestHistoryBoundedToLastHundred(t *testing.T) {
	b := New(quietLogger())
	for i := 0; i < 150; i++ {
		b.Publish("e", i)
	}
	h := b.History()
	if len(h) != 100 {
		t.Fatalf("history length = %d, want 100", len(h))
	}
	if h[0].Payload != 50 || h[99].Payload != 149 {
		t.Errorf("history window = [%v..%v], want [50..149]", h[0].Payload, h[99].Payload)
	}
	if h[0].Event != "e" || h[0].At.IsZero() {
		t.Errorf("record not filled: %+v", h[0])
	}
}

func TestReentrantPublishRunsDepthFirst(t *testing.T) {
	b := New(quietLogger())
	var got []string
	b.Subscribe("inner", func(any) { got = append(got, "inner") })
	b.Subscribe("outer", func(any) {
		got = append(got, "outer before")
		b.Publish("inner", nil)
		got = append(got, "outer after")
	})

	b.Publish("outer", nil)

	want := fmt.Sprint([]string{"outer before", "inner", "outer after"})
	if fmt.Sprint(got) != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestUnsubscribeDuringPublishKeepsSnapshot(t *testing.T) {
	b := New(quietLogger())
	var got []string
	var unsubSecond func()
	b.Subscribe("e", func(any) {
		got = append(got, "first")
		unsubSecond()
	})
	unsubSecond = b.Subscribe("e", func(any) { got = append(got, "second") })

	b.Publish("e", nil)
	if len(got) != 2 {
		t.Errorf("snapshot delivery broken, got %v", got)
	}

	got = nil
	b.Publish("e", nil)
	if len(got) != 1 || got[0] != "first" {
		t.Errorf("after unsubscribe, got %v", got)
	}
}
