package watch

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/tickerlens/pkg/models"
)

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, raw string) (*models.Analysis, error) {
	f.mu.Lock()
	f.calls = append(f.calls, raw)
	f.mu.Unlock()
	if err := f.fail[raw]; err != nil {
		return nil, err
	}
	return &models.Analysis{Symbol: raw}, nil
}

func (f *fakeAnalyzer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type recordingNotifier struct {
	mu  sync.Mutex
	got []string
}

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) Notify(_ context.Context, a *models.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, a.Symbol)
	return nil
}

func TestRunOnce(t *testing.T) {
	an := &fakeAnalyzer{fail: map[string]error{"FAKE.TW": errors.New("no data found")}}
	rn := &recordingNotifier{}
	w := New(an, rn, []string{"AAPL", "FAKE.TW", "2330.TW"}, "", zerolog.Nop())

	err := w.RunOnce(context.Background())
	if err == nil || !strings.Contains(err.Error(), "FAKE.TW") {
		t.Fatalf("expected FAKE.TW failure, got %v", err)
	}
	if got := strings.Join(an.Calls(), ","); got != "AAPL,FAKE.TW,2330.TW" {
		t.Errorf("analyzed: got %s", got)
	}
	if got := strings.Join(rn.got, ","); got != "AAPL,2330.TW" {
		t.Errorf("notified: got %s", got)
	}
}

func TestRunOnceNoSymbols(t *testing.T) {
	w := New(&fakeAnalyzer{}, nil, nil, "", zerolog.Nop())
	if err := w.RunOnce(context.Background()); !errors.Is(err, ErrNoSymbols) {
		t.Fatalf("expected ErrNoSymbols, got %v", err)
	}
	if err := w.Start(context.Background()); !errors.Is(err, ErrNoSymbols) {
		t.Fatalf("expected ErrNoSymbols from Start, got %v", err)
	}
}

func TestStartInvalidSchedule(t *testing.T) {
	w := New(&fakeAnalyzer{}, nil, []string{"AAPL"}, "not a cron spec", zerolog.Nop())
	if err := w.Start(context.Background()); err == nil {
		t.Fatal("expected schedule error")
	}
}

func TestScheduledRun(t *testing.T) {
	var buf bytes.Buffer
	an := &fakeAnalyzer{}
	rn := &recordingNotifier{}
	w := New(an, rn, []string{"GLD"}, "* * * * * *", zerolog.New(&buf))

	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for len(an.Calls()) == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if len(an.Calls()) == 0 {
		t.Fatal("scheduled job did not run")
	}
	if err := w.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}
	if !strings.Contains(buf.String(), `"event":"watch_started"`) {
		t.Errorf("start not logged: %s", buf.String())
	}
}
