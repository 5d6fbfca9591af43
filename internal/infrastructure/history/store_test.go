package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/termflow/internal/domain"
)

func entry(session, id string, at time.Time) domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:        id,
		SessionID: session,
		Command:   domain.Command{ID: id, Program: "git", Args: []string{"status"}},
		Result:    domain.ExecutionResult{CommandID: id, ExitCode: 0, Success: true},
		Timestamp: at,
	}
}

func TestAppendAndRecentOrdering(t *testing.T) {
	store := NewMemoryStore(0)
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		store.Append(entry("s1", fmt.Sprintf("c%d", i), base.Add(time.Duration(i)*time.Minute)))
	}

	recent := store.Recent("s1", 3)
	if len(recent) != 3 {
		t.Fatalf("recent length = %d, want 3", len(recent))
	}
	if recent[0].ID != "c2" || recent[2].ID != "c4" {
		t.Fatalf("recent window = [%s..%s], want [c2..c4]", recent[0].ID, recent[2].ID)
	}
}

func TestPerSessionCapEvictsOldest(t *testing.T) {
	store := NewMemoryStore(3)
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		store.Append(entry("s1", fmt.Sprintf("a%d", i), base.Add(time.Duration(i)*time.Second)))
	}
	store.Append(entry("s2", "b0", base))

	got := store.Entries("s1")
	if len(got) != 3 {
		t.Fatalf("s1 entries = %d, want 3", len(got))
	}
	if got[0].ID != "a2" {
		t.Fatalf("oldest surviving s1 entry = %s, want a2", got[0].ID)
	}
	if n := len(store.Entries("s2")); n != 1 {
		t.Fatalf("s2 entries = %d, want 1 (cap is per session)", n)
	}
	if store.Len() != 4 {
		t.Fatalf("total entries = %d, want 4", store.Len())
	}
}

func TestEntriesEmptySessionReturnsAllChronologically(t *testing.T) {
	store := NewMemoryStore(0)
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	store.Append(entry("s1", "x1", base))
	store.Append(entry("s2", "y1", base.Add(time.Second)))
	store.Append(entry("s1", "x2", base.Add(2*time.Second)))

	all := store.Entries("")
	ids := []string{all[0].ID, all[1].ID, all[2].ID}
	if diff := cmp.Diff([]string{"x1", "y1", "x2"}, ids); diff != "" {
		t.Fatalf("global order mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceSwapsLog(t *testing.T) {
	store := NewMemoryStore(0)
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	store.Append(entry("s1", "old", base))

	fresh := []domain.HistoryEntry{entry("s9", "new1", base), entry("s9", "new2", base.Add(time.Second))}
	store.Replace(fresh)

	if diff := cmp.Diff(fresh, store.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch after replace (-want +got):\n%s", diff)
	}
	if len(store.Entries("s1")) != 0 {
		t.Fatal("old session entries survived Replace")
	}
}
