package aeon

import (
	"errors"
	"testing"
	"time"
)

func TestBlockingPool_SubmitRunsAndReturnsResult(t *testing.T) {
	t.Parallel()

	p := newBlockingPool(2)
	defer p.close(time.Second)

	ch, err := p.submit(func() (any, error) { return 5, nil })
	if err != nil {
		t.Fatalf("submit() error: %v", err)
	}

	select {
	case out := <-ch:
		if out.val != 5 || out.err != nil {
			t.Fatalf("outcome = %+v, want val=5", out)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job did not complete in time")
	}
}

func TestBlockingPool_SubmitPropagatesError(t *testing.T) {
	t.Parallel()

	p := newBlockingPool(1)
	defer p.close(time.Second)

	wantErr := errors.New("boom")
	ch, err := p.submit(func() (any, error) { return nil, wantErr })
	if err != nil {
		t.Fatalf("submit() error: %v", err)
	}
	select {
	case out := <-ch:
		if out.err != wantErr {
			t.Fatalf("outcome.err = %v, want %v", out.err, wantErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job did not complete in time")
	}
}

func TestBlockingPool_SubmitRecoversPanic(t *testing.T) {
	t.Parallel()

	p := newBlockingPool(1)
	defer p.close(time.Second)

	ch, err := p.submit(func() (any, error) { panic("kaboom") })
	if err != nil {
		t.Fatalf("submit() error: %v", err)
	}
	select {
	case out := <-ch:
		pe, ok := out.err.(*PanicError)
		if !ok {
			t.Fatalf("outcome.err = %v (%T), want *PanicError", out.err, out.err)
		}
		if pe.Value != "kaboom" {
			t.Fatalf("PanicError.Value = %v, want %q", pe.Value, "kaboom")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job did not complete in time")
	}
}

func TestBlockingPool_SubmitMoreThanMaxQueuesRatherThanDrops(t *testing.T) {
	t.Parallel()

	p := newBlockingPool(1)
	defer p.close(time.Second)

	const n = 5
	chans := make([]<-chan taskOutcome, n)
	release := make(chan struct{})
	submitted := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		idx := i
		go func() {
			ch, err := p.submit(func() (any, error) {
				if idx == 0 {
					<-release
				}
				return idx, nil
			})
			if err != nil {
				t.Errorf("submit() #%d error: %v", idx, err)
			}
			chans[idx] = ch
			submitted <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		<-submitted
	}
	close(release)

	deadline := time.After(3 * time.Second)
	for i, ch := range chans {
		select {
		case out := <-ch:
			if out.val != i {
				t.Fatalf("job #%d outcome.val = %v, want %d", i, out.val, i)
			}
		case <-deadline:
			t.Fatalf("job #%d never completed (likely dropped)", i)
		}
	}
}

func TestBlockingPool_SubmitAfterCloseErrors(t *testing.T) {
	t.Parallel()

	p := newBlockingPool(1)
	p.close(time.Second)

	_, err := p.submit(func() (any, error) { return nil, nil })
	if err != ErrRuntimeStopped {
		t.Fatalf("submit() after close() error = %v, want ErrRuntimeStopped", err)
	}
}
