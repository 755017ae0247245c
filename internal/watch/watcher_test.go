package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/datadiag/datadiag/internal/catalog"
	"github.com/datadiag/datadiag/internal/diag"
	"github.com/datadiag/datadiag/internal/payload"
	"github.com/datadiag/datadiag/internal/runner"
)

type fakeNotifier struct {
	titles []string
	err    error
}

func (f *fakeNotifier) Send(ctx context.Context, title, text string) error {
	f.titles = append(f.titles, title)
	return f.err
}

// newWatcher wires a watcher whose single check fails whenever the data
// file contains the word "bad".
func newWatcher(t *testing.T, n *fakeNotifier) (*Watcher, string) {
	t.Helper()
	c := catalog.New(nil)
	c.AddSystem("filecheck", "", "0.0.1")
	c.AddTest("filecheck", catalog.Test{
		Name: "content_ok",
		Fn: func(data payload.Payload) (diag.Result, error) {
			txt, _ := data.(payload.Text)
			if strings.Contains(string(txt), "bad") {
				return diag.NewResult("content_ok", diag.StatusFail, "bad content"), nil
			}
			return diag.NewResult("content_ok", diag.StatusPass, "content ok"), nil
		},
	})

	path := filepath.Join(t.TempDir(), "data.txt")
	writeFile(t, path, "good")

	w := New(nil, runner.New(c, nil), n, "filecheck", path, time.Minute, time.Hour)
	return w, path
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestRunOnce_HealthyBaselineIsSilent(t *testing.T) {
	n := &fakeNotifier{}
	w, _ := newWatcher(t, n)

	w.runOnce(context.Background())
	w.runOnce(context.Background())
	if len(n.titles) != 0 {
		t.Fatalf("healthy runs should not notify: %v", n.titles)
	}
}

func TestRunOnce_UnhealthyBaselineAlerts(t *testing.T) {
	n := &fakeNotifier{}
	w, path := newWatcher(t, n)
	writeFile(t, path, "bad")

	w.runOnce(context.Background())
	if len(n.titles) != 1 || n.titles[0] != "Diagnostics UNHEALTHY" {
		t.Fatalf("titles=%v", n.titles)
	}
}

func TestRunOnce_TransitionsAlertOnce(t *testing.T) {
	n := &fakeNotifier{}
	w, path := newWatcher(t, n)

	w.runOnce(context.Background()) // healthy baseline

	writeFile(t, path, "bad")
	w.runOnce(context.Background()) // flips unhealthy
	w.runOnce(context.Background()) // still unhealthy, no transition

	writeFile(t, path, "good")
	w.runOnce(context.Background()) // recovery

	want := []string{"Diagnostics UNHEALTHY", "Diagnostics RECOVERED"}
	if len(n.titles) != len(want) {
		t.Fatalf("titles=%v want %v", n.titles, want)
	}
	for i := range want {
		if n.titles[i] != want[i] {
			t.Fatalf("titles=%v want %v", n.titles, want)
		}
	}
}

func TestRunOnce_CooldownSuppressesRepeatAlerts(t *testing.T) {
	n := &fakeNotifier{}
	w, path := newWatcher(t, n)

	writeFile(t, path, "bad")
	w.runOnce(context.Background()) // alert, starts the cooldown window

	writeFile(t, path, "good")
	w.runOnce(context.Background()) // recovery goes out regardless

	writeFile(t, path, "bad")
	w.runOnce(context.Background()) // second flap inside the cooldown

	want := []string{"Diagnostics UNHEALTHY", "Diagnostics RECOVERED"}
	if len(n.titles) != len(want) {
		t.Fatalf("titles=%v want %v", n.titles, want)
	}
}

func TestRunOnce_MissingFileSkipsPass(t *testing.T) {
	n := &fakeNotifier{}
	w, path := newWatcher(t, n)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	w.runOnce(context.Background())
	if len(n.titles) != 0 {
		t.Fatalf("load failure should not notify: %v", n.titles)
	}
}

func TestRunOnce_NotifierErrorIsNonFatal(t *testing.T) {
	n := &fakeNotifier{err: errors.New("webhook down")}
	w, path := newWatcher(t, n)
	writeFile(t, path, "bad")

	w.runOnce(context.Background())
	// the error is logged; a later recovery still goes out
	writeFile(t, path, "good")
	w.runOnce(context.Background())
	if len(n.titles) != 2 {
		t.Fatalf("titles=%v", n.titles)
	}
}

func TestRun_DisabledWithoutInterval(t *testing.T) {
	w := New(nil, runner.New(catalog.New(nil), nil), nil, "filecheck", "x", 0, 0)

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately when the interval is zero")
	}
}
