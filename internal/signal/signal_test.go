package signal

import "testing"

func TestSetNotifiesOnChange(t *testing.T) {
	s := New(0.0)
	var got []float64
	cancel := s.Subscribe(func(v float64) { got = append(got, v) })
	defer cancel()

	s.Set(0.2)
	s.Set(0.2)
	s.Set(0.75)

	if len(got) != 2 || got[0] != 0.2 || got[1] != 0.75 {
		t.Errorf("notifications = %v, want [0.2 0.75]", got)
	}
	if s.Value() != 0.75 {
		t.Errorf("Value() = %v", s.Value())
	}
}

func TestSubscribersRunInOrder(t *testing.T) {
	s := New("")
	var order []int
	s.Subscribe(func(string) { order = append(order, 1) })
	s.Subscribe(func(string) { order = append(order, 2) })

	s.Set("x")
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("order = %v", order)
	}
}

func TestCancel(t *testing.T) {
	s := New(0)
	calls := 0
	cancel := s.Subscribe(func(int) { calls++ })
	s.Set(1)
	cancel()
	cancel()
	s.Set(2)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if s.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", s.Subscribers())
	}
}

func TestCancelDuringNotify(t *testing.T) {
	s := New(0)
	var cancel func()
	calls := 0
	cancel = s.Subscribe(func(int) {
		calls++
		cancel()
	})
	s.Set(1)
	s.Set(2)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
