package nodes

import (
	"math/rand"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

// Dedup removes duplicate descriptors keyed by Raw, keeping the first
// occurrence and its order. Two descriptors with the same Raw are the same
// node regardless of source, so the first-seen Source tag wins.
func Dedup(in []model.NodeDescriptor) []model.NodeDescriptor {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.NodeDescriptor, 0, len(in))
	for _, d := range in {
		if _, ok := seen[d.Raw]; ok {
			continue
		}
		seen[d.Raw] = struct{}{}
		out = append(out, d)
	}
	return out
}

// Merge concatenates local descriptors before subscription descriptors and
// deduplicates. Local-before-subscription ordering is load-bearing: the
// local list is curated, so on a raw-line conflict the local copy's Source
// must survive.
func Merge(local, subscription []model.NodeDescriptor) []model.NodeDescriptor {
	all := make([]model.NodeDescriptor, 0, len(local)+len(subscription))
	all = append(all, local...)
	all = append(all, subscription...)
	return Dedup(all)
}

// Sample draws a uniform random sample of exactly n descriptors when the
// input is larger than n; otherwise it returns the input unchanged. The
// rand source is injected so tests can make the draw reproducible.
func Sample(in []model.NodeDescriptor, n int, rnd *rand.Rand) []model.NodeDescriptor {
	if n <= 0 || len(in) <= n {
		return in
	}
	perm := rnd.Perm(len(in))
	out := make([]model.NodeDescriptor, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, in[idx])
	}
	return out
}
