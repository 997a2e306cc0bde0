package nodes

import (
	"math/rand"
	"testing"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

func desc(raw string, source model.Source) model.NodeDescriptor {
	return model.NodeDescriptor{Raw: raw, Protocol: model.ProtocolHostPort, Source: source}
}

func TestDedup_KeepsFirstOccurrence(t *testing.T) {
	in := []model.NodeDescriptor{
		desc("a:1", model.SourceLocal),
		desc("b:2", model.SourceLocal),
		desc("a:1", model.SourceSubscription),
		desc("c:3", model.SourceSubscription),
	}
	got := Dedup(in)
	if len(got) != 3 {
		t.Fatalf("len=%d, want=3", len(got))
	}
	if got[0].Raw != "a:1" || got[1].Raw != "b:2" || got[2].Raw != "c:3" {
		t.Fatalf("order=%q,%q,%q, want a:1,b:2,c:3", got[0].Raw, got[1].Raw, got[2].Raw)
	}
	if got[0].Source != model.SourceLocal {
		t.Fatalf("source=%q, want first-seen %q", got[0].Source, model.SourceLocal)
	}
}

func TestDedup_Idempotent(t *testing.T) {
	in := []model.NodeDescriptor{desc("a:1", model.SourceLocal), desc("a:1", model.SourceLocal)}
	once := Dedup(in)
	twice := Dedup(once)
	if len(once) != 1 || len(twice) != 1 {
		t.Fatalf("len(once)=%d len(twice)=%d, want 1 and 1", len(once), len(twice))
	}
}

func TestMerge_LocalWinsOnConflict(t *testing.T) {
	local := []model.NodeDescriptor{desc("shared:1", model.SourceLocal)}
	subscription := []model.NodeDescriptor{
		desc("shared:1", model.SourceSubscription),
		desc("only-sub:2", model.SourceSubscription),
	}
	got := Merge(local, subscription)
	if len(got) != 2 {
		t.Fatalf("len=%d, want=2", len(got))
	}
	if got[0].Raw != "shared:1" || got[0].Source != model.SourceLocal {
		t.Fatalf("got[0]=%q/%q, want shared:1 from local", got[0].Raw, got[0].Source)
	}
}

func TestSample_SmallInputUnchanged(t *testing.T) {
	in := []model.NodeDescriptor{desc("a:1", model.SourceLocal), desc("b:2", model.SourceLocal)}
	rnd := rand.New(rand.NewSource(1))

	if got := Sample(in, 0, rnd); len(got) != 2 {
		t.Fatalf("n=0: len=%d, want=2 (sampling disabled)", len(got))
	}
	if got := Sample(in, 5, rnd); len(got) != 2 {
		t.Fatalf("n=5: len=%d, want=2", len(got))
	}
}

func TestSample_DrawIsReproducible(t *testing.T) {
	in := make([]model.NodeDescriptor, 10)
	for i := range in {
		in[i] = desc(string(rune('a'+i))+":1", model.SourceLocal)
	}

	first := Sample(in, 3, rand.New(rand.NewSource(42)))
	second := Sample(in, 3, rand.New(rand.NewSource(42)))
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("len(first)=%d len(second)=%d, want 3 and 3", len(first), len(second))
	}
	for i := range first {
		if first[i].Raw != second[i].Raw {
			t.Fatalf("draw differs at %d: %q vs %q", i, first[i].Raw, second[i].Raw)
		}
	}

	seen := make(map[string]struct{}, 3)
	for _, d := range first {
		if _, ok := seen[d.Raw]; ok {
			t.Fatalf("duplicate %q in sample", d.Raw)
		}
		seen[d.Raw] = struct{}{}
	}
}
