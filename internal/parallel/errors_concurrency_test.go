package parallel

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestErrorCollectorZeroValue(t *testing.T) {
	var ec ErrorCollector
	if ec.Err() != nil || ec.Failed() {
		t.Fatal("zero ErrorCollector should hold no error")
	}
	first := errors.New("first")
	ec.SetError(nil)
	ec.SetError(first)
	ec.SetError(errors.New("second"))
	if ec.Err() != first {
		t.Errorf("Err() = %v, want %v", ec.Err(), first)
	}
	if !ec.Failed() {
		t.Error("Failed() should be true after SetError")
	}
}

// TestErrorCollectorHighContention checks that exactly one error survives
// 1000 goroutines racing to set theirs, over 100 rounds.
func TestErrorCollectorHighContention(t *testing.T) {
	for round := 0; round < 100; round++ {
		var ec ErrorCollector
		var wg sync.WaitGroup
		const numGoroutines = 1000
		barrier := make(chan struct{})

		wg.Add(numGoroutines)
		for i := 0; i < numGoroutines; i++ {
			go func(id int) {
				defer wg.Done()
				<-barrier
				ec.SetError(fmt.Errorf("error from goroutine %d", id))
			}(i)
		}

		close(barrier)
		wg.Wait()

		err := ec.Err()
		if err == nil {
			t.Fatalf("round %d: expected an error, got nil", round)
		}
		if !strings.HasPrefix(err.Error(), "error from goroutine ") {
			t.Errorf("round %d: unexpected error format: %v", round, err)
		}
		if ec.Err() != err {
			t.Errorf("round %d: recorded error changed after the race", round)
		}
	}
}

// TestErrorCollectorNilIgnored sets nil and real errors concurrently; only a
// real one may be kept.
func TestErrorCollectorNilIgnored(t *testing.T) {
	var ec ErrorCollector
	var wg sync.WaitGroup
	barrier := make(chan struct{})

	wg.Add(1000)
	for i := 0; i < 500; i++ {
		go func() {
			defer wg.Done()
			<-barrier
			ec.SetError(nil)
		}()
	}
	for i := 0; i < 500; i++ {
		go func(id int) {
			defer wg.Done()
			<-barrier
			ec.SetError(fmt.Errorf("real error %d", id))
		}(i)
	}

	close(barrier)
	wg.Wait()

	err := ec.Err()
	if err == nil {
		t.Fatal("expected a real error, got nil")
	}
	if !strings.HasPrefix(err.Error(), "real error ") {
		t.Errorf("unexpected error: %v", err)
	}
}
