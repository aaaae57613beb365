package monitor

import (
	"sync"
	"testing"

	"healther/app/internal/models"
)

func TestNewTracker(t *testing.T) {
	tr := NewTracker()
	if tr == nil {
		t.Fatal("NewTracker returned nil")
	}
}

func TestObserve_FirstCheckIsNotAChange(t *testing.T) {
	tr := NewTracker()

	tn := tr.Observe("w1", models.StatusDown)
	if tn.Changed() {
		t.Errorf("first check should not be a change: %+v", tn)
	}
	if tn.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", tn.Failures)
	}
}

func TestObserve_CountsConsecutiveFailures(t *testing.T) {
	tr := NewTracker()

	tr.Observe("w1", models.StatusDown)
	tr.Observe("w1", models.StatusDegraded)
	tn := tr.Observe("w1", models.StatusDown)
	if tn.Failures != 3 {
		t.Errorf("expected 3, got %d", tn.Failures)
	}

	tn = tr.Observe("w1", models.StatusHealthy)
	if tn.Failures != 0 || !tn.Recovered() {
		t.Errorf("expected a recovery with no failures, got %+v", tn)
	}
	if got := tr.Failures("w1"); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestObserve_Transitions(t *testing.T) {
	tests := []struct {
		name      string
		from, to  models.HealthStatus
		changed   bool
		recovered bool
	}{
		{"still healthy", models.StatusHealthy, models.StatusHealthy, false, false},
		{"goes down", models.StatusHealthy, models.StatusDown, true, false},
		{"degrades", models.StatusHealthy, models.StatusDegraded, true, false},
		{"down to degraded", models.StatusDown, models.StatusDegraded, true, false},
		{"recovers", models.StatusDown, models.StatusHealthy, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			tr.Observe("w1", tt.from)
			tn := tr.Observe("w1", tt.to)
			if tn.From != tt.from || tn.To != tt.to {
				t.Errorf("unexpected transition %+v", tn)
			}
			if tn.Changed() != tt.changed || tn.Recovered() != tt.recovered {
				t.Errorf("changed=%v recovered=%v, want %v %v", tn.Changed(), tn.Recovered(), tt.changed, tt.recovered)
			}
		})
	}
}

func TestObserve_IndependentWatchers(t *testing.T) {
	tr := NewTracker()

	tr.Observe("w1", models.StatusDown)
	tr.Observe("w1", models.StatusDown)
	tr.Observe("w2", models.StatusDown)

	if got := tr.Failures("w1"); got != 2 {
		t.Errorf("w1: expected 2, got %d", got)
	}
	if got := tr.Failures("w2"); got != 1 {
		t.Errorf("w2: expected 1, got %d", got)
	}
}

func TestForget(t *testing.T) {
	tr := NewTracker()

	tr.Observe("w1", models.StatusDown)
	tr.Forget("w1")
	if got := tr.Failures("w1"); got != 0 {
		t.Errorf("expected 0 after Forget, got %d", got)
	}
	if tn := tr.Observe("w1", models.StatusHealthy); tn.Changed() {
		t.Errorf("a forgotten watcher starts fresh: %+v", tn)
	}
}

func TestForget_UnknownWatcher(t *testing.T) {
	tr := NewTracker()
	tr.Forget("missing")
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := models.StatusDown
			if i%3 == 0 {
				status = models.StatusHealthy
			}
			tr.Observe("w1", status)
			tr.Failures("w1")
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		tr.Observe("w2", models.StatusDown)
	}
	if got := tr.Failures("w2"); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
}
