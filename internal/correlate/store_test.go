package correlate_test

import (
	"sync"
	"testing"

	"github.com/dshills/screenloop/internal/correlate"
)

func TestTokensAreUniqueAndTimeOrdered(t *testing.T) {
	s := correlate.NewStore()

	seen := make(map[correlate.Token]bool)
	var prev correlate.Token
	for i := 0; i < 1000; i++ {
		token := s.RegisterResult(i)
		if seen[token] {
			t.Fatalf("token %d repeated at registration %d", token, i)
		}
		seen[token] = true
		if token <= prev {
			t.Fatalf("token %d not greater than previous %d", token, prev)
		}
		prev = token
	}
}

func TestResultSingleConsumption(t *testing.T) {
	s := correlate.NewStore()

	token := s.RegisterResult("value")

	v, ok := s.TakeResult(token)
	if !ok || v != "value" {
		t.Fatalf("first TakeResult() = (%v, %v), want (value, true)", v, ok)
	}

	v, ok = s.TakeResult(token)
	if ok || v != nil {
		t.Errorf("second TakeResult() = (%v, %v), want absent", v, ok)
	}
}

func TestTakeResultUnknownTokenIsAbsent(t *testing.T) {
	s := correlate.NewStore()

	if _, ok := s.TakeResult(correlate.None); ok {
		t.Error("zero token must resolve to absent")
	}
	if _, ok := s.TakeResult(correlate.Token(12345)); ok {
		t.Error("unknown token must resolve to absent, not an error")
	}
}

func TestArgumentsReadableMultipleTimes(t *testing.T) {
	s := correlate.NewStore()

	token := s.RegisterArguments("title", 42)

	for i := 0; i < 3; i++ {
		args, ok := s.TakeArguments(token)
		if !ok {
			t.Fatalf("read %d: arguments absent", i)
		}
		if len(args) != 2 || args[0] != "title" || args[1] != 42 {
			t.Fatalf("read %d: args = %v", i, args)
		}
	}
}

func TestReclaimSessionDropsOnlyThatGeneration(t *testing.T) {
	s := correlate.NewStore()

	outerGen := s.BeginSession()
	outerToken := s.RegisterArguments("outer")

	innerGen := s.BeginSession()
	innerToken := s.RegisterArguments("inner")

	if n := s.ReclaimSession(innerGen); n != 1 {
		t.Fatalf("ReclaimSession() reclaimed %d entries, want 1", n)
	}

	if _, ok := s.TakeArguments(innerToken); ok {
		t.Error("reclaimed arguments must resolve to absent")
	}
	if _, ok := s.TakeArguments(outerToken); !ok {
		t.Error("other sessions' arguments must survive")
	}

	s.ReclaimSession(outerGen)
	if _, ok := s.TakeArguments(outerToken); ok {
		t.Error("outer arguments must be gone after their session is reclaimed")
	}
}

func TestReclaimThroughDropsEarlierGenerations(t *testing.T) {
	s := correlate.NewStore()

	s.BeginSession()
	t1 := s.RegisterArguments("a")
	s.BeginSession()
	t2 := s.RegisterArguments("b")
	keepGen := s.BeginSession()
	t3 := s.RegisterArguments("c")

	if n := s.ReclaimThrough(keepGen - 1); n != 2 {
		t.Fatalf("ReclaimThrough() reclaimed %d entries, want 2", n)
	}

	if _, ok := s.TakeArguments(t1); ok {
		t.Error("generation 1 arguments must be reclaimed")
	}
	if _, ok := s.TakeArguments(t2); ok {
		t.Error("generation 2 arguments must be reclaimed")
	}
	if _, ok := s.TakeArguments(t3); !ok {
		t.Error("current generation must survive")
	}
}

func TestStarterDispatchedExactlyOnce(t *testing.T) {
	s := correlate.NewStore()

	var payloads []any
	token := s.RegisterStarter(func(payload any) {
		payloads = append(payloads, payload)
	})

	if !s.TakeAndDispatch(token, "result-data") {
		t.Fatal("first TakeAndDispatch() = false, want true")
	}
	if s.TakeAndDispatch(token, "again") {
		t.Error("second TakeAndDispatch() must report false")
	}

	if len(payloads) != 1 || payloads[0] != "result-data" {
		t.Errorf("payloads = %v, want exactly one dispatch", payloads)
	}
}

func TestTakeAndDispatchUnknownToken(t *testing.T) {
	s := correlate.NewStore()

	if s.TakeAndDispatch(correlate.Token(99), nil) {
		t.Error("unknown token must dispatch nothing")
	}
}

func TestConcurrentAccess(t *testing.T) {
	// Callbacks can arrive from incidental goroutines; the tables must
	// tolerate concurrent registration and consumption.
	s := correlate.NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				token := s.RegisterResult(j)
				if _, ok := s.TakeResult(token); !ok {
					t.Error("registered result missing")
					return
				}
				at := s.RegisterArguments(j)
				if _, ok := s.TakeArguments(at); !ok {
					t.Error("registered arguments missing")
					return
				}
			}
		}()
	}
	wg.Wait()
}
