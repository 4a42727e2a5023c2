package learning

import (
	"sync"
	"testing"

	"mercator-hq/judgment/pkg/decision"
)

func newTestLearner(t *testing.T, threshold int) *Learner {
	t.Helper()
	l, err := New(threshold, nil)
	if err != nil {
		t.Fatalf("New(%d) error = %v", threshold, err)
	}
	return l
}

func TestNew_InvalidThreshold(t *testing.T) {
	for _, threshold := range []int{0, -1} {
		if _, err := New(threshold, nil); err == nil {
			t.Errorf("New(%d) error = nil, want error", threshold)
		}
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		req  decision.Request
		want string
	}{
		{
			name: "no key fields",
			req:  decision.Request{"prompt": "hello"},
			want: DefaultKey,
		},
		{
			name: "empty request",
			req:  decision.Request{},
			want: DefaultKey,
		},
		{
			name: "single field",
			req:  decision.Request{"category": "email"},
			want: "category:email",
		},
		{
			name: "fields emitted in fixed order",
			req: decision.Request{
				"role":          "admin",
				"category":      "deploy",
				"sensitivity":   "high",
				"resource_type": "db",
				"action":        "drop",
			},
			want: "category:deploy|action:drop|sensitivity:high|resource_type:db|role:admin",
		},
		{
			name: "non key fields ignored",
			req:  decision.Request{"category": "email", "prompt": "x", "user": "bob"},
			want: "category:email",
		},
		{
			name: "non string values",
			req:  decision.Request{"category": 7, "sensitivity": true},
			want: "category:7|sensitivity:true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.req); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_Idempotent(t *testing.T) {
	a := decision.Request{"category": "email", "role": "user", "prompt": "one"}
	b := decision.Request{"role": "user", "category": "email", "prompt": "two"}

	if Key(a) != Key(a) {
		t.Error("Key() is not stable for the same request")
	}
	if Key(a) != Key(b) {
		t.Errorf("Key() = %q and %q for structurally equal requests", Key(a), Key(b))
	}
}

func TestLearner_ConfidenceCounting(t *testing.T) {
	l := newTestLearner(t, 3)
	req := decision.Request{"category": "email"}

	if kind, _ := l.Query(req); kind != decision.MatchMiss {
		t.Fatalf("Query() before learning = %q, want %q", kind, decision.MatchMiss)
	}

	l.Learn(req, decision.ActionAllow)
	l.Learn(req, decision.ActionAllow)
	if kind, _ := l.Query(req); kind != decision.MatchPartial {
		t.Fatalf("Query() after 2 learns = %q, want %q", kind, decision.MatchPartial)
	}

	l.Learn(req, decision.ActionAllow)
	kind, action := l.Query(req)
	if kind != decision.MatchHit {
		t.Fatalf("Query() after 3 learns = %q, want %q", kind, decision.MatchHit)
	}
	if action != decision.ActionAllow {
		t.Errorf("Query() action = %q, want %q", action, decision.ActionAllow)
	}
}

func TestLearner_ContradictionResets(t *testing.T) {
	l := newTestLearner(t, 3)
	req := decision.Request{"category": "deploy"}

	for i := 0; i < 3; i++ {
		l.Learn(req, decision.ActionAllow)
	}
	l.Learn(req, decision.ActionHold)

	kind, _ := l.Query(req)
	if kind != decision.MatchPartial {
		t.Fatalf("Query() after contradiction = %q, want %q", kind, decision.MatchPartial)
	}

	entries := l.Entries()
	if len(entries) != 1 {
		t.Fatalf("Entries() len = %d, want 1", len(entries))
	}
	if entries[0].Action != decision.ActionHold || entries[0].Confidence != 1 {
		t.Errorf("entry = %+v, want action HOLD with confidence 1", entries[0])
	}
}

func TestLearner_ThresholdOne(t *testing.T) {
	l := newTestLearner(t, 1)
	req := decision.Request{"role": "admin"}

	l.Learn(req, decision.ActionEscalate)
	kind, action := l.Query(req)
	if kind != decision.MatchHit || action != decision.ActionEscalate {
		t.Errorf("Query() = (%q, %q), want (hit, ESCALATE)", kind, action)
	}
}

func TestLearner_EntriesSortedAndReset(t *testing.T) {
	l := newTestLearner(t, 3)
	l.Learn(decision.Request{"role": "user"}, decision.ActionAllow)
	l.Learn(decision.Request{"category": "email"}, decision.ActionHold)
	l.Learn(decision.Request{}, decision.ActionAllow)

	entries := l.Entries()
	want := []string{"category:email", "default", "role:user"}
	if len(entries) != len(want) {
		t.Fatalf("Entries() len = %d, want %d", len(entries), len(want))
	}
	for i, key := range want {
		if entries[i].Key != key {
			t.Errorf("Entries()[%d].Key = %q, want %q", i, entries[i].Key, key)
		}
	}

	l.Reset()
	if l.Len() != 0 {
		t.Errorf("Len() after Reset() = %d, want 0", l.Len())
	}
}

func TestLearner_ConcurrentLearn(t *testing.T) {
	l := newTestLearner(t, 1000)
	req := decision.Request{"category": "email"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				l.Learn(req, decision.ActionAllow)
			}
		}()
	}
	wg.Wait()

	entries := l.Entries()
	if len(entries) != 1 || entries[0].Confidence != 1000 {
		t.Errorf("Entries() = %+v, want one entry with confidence 1000", entries)
	}
}
