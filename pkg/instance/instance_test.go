package instance

import "testing"

func TestGetIDPrefersDyno(t *testing.T) {
	t.Setenv("DYNO", "web.1")
	t.Setenv("WORKER_ID", "worker-7")

	if got := GetID(); got != "web.1" {
		t.Fatalf("expected dyno id, got %q", got)
	}
}

func TestGetIDFallsBackToWorkerID(t *testing.T) {
	t.Setenv("DYNO", "")
	t.Setenv("WORKER_ID", "worker-7")

	if got := GetID(); got != "worker-7" {
		t.Fatalf("expected worker id, got %q", got)
	}
}

func TestGetIDDefaultsToLocal(t *testing.T) {
	t.Setenv("DYNO", "")
	t.Setenv("WORKER_ID", "")

	if got := GetID(); got != "local" {
		t.Fatalf("expected local fallback, got %q", got)
	}
}
