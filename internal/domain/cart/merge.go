// internal/domain/cart/merge.go
package cart

// MergeLWW merges two item lists per identity key, last-writer-wins.
//
// For keys present on both sides the version with the later AddedAt wins
// (equal timestamps tie-break on the larger line id so every context picks
// the same side). One-sided keys are kept. Local display order is preserved;
// winners from the other side keep the local position, other-side-only lines
// are appended in their own order.
//
// Used when another execution context signalled a change: the handler reloads
// persisted state and merges it into memory, so a context that only touched
// item A never clobbers a concurrent edit to item B.
func MergeLWW(local, other []Item) []Item {
	otherByKey := map[string]Item{}
	for _, it := range other {
		otherByKey[it.Key()] = it
	}

	out := make([]Item, 0, len(local)+len(other))
	seen := map[string]bool{}

	for _, lit := range local {
		k := lit.Key()
		if seen[k] {
			continue
		}
		seen[k] = true

		oit, ok := otherByKey[k]
		if !ok {
			out = append(out, cloneItem(lit))
			continue
		}
		out = append(out, cloneItem(pickLater(lit, oit)))
	}

	for _, oit := range other {
		k := oit.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, cloneItem(oit))
	}

	return Normalize(out)
}

// MergeSignIn merges the backend cart into local state on sign-in.
//
// Local empty -> remote replaces wholesale. Otherwise remote-only keys are
// appended and conflicting keys keep the local version: local, more recent
// edits take precedence over a stale server snapshot.
func MergeSignIn(local, remote []Item) []Item {
	if len(local) == 0 {
		return Normalize(remote)
	}

	seen := map[string]bool{}
	out := make([]Item, 0, len(local)+len(remote))
	for _, it := range local {
		seen[it.Key()] = true
		out = append(out, cloneItem(it))
	}
	for _, it := range remote {
		if seen[it.Key()] {
			continue
		}
		out = append(out, cloneItem(it))
	}
	return Normalize(out)
}

func pickLater(a, b Item) Item {
	if a.AddedAt.After(b.AddedAt) {
		return a
	}
	if b.AddedAt.After(a.AddedAt) {
		return b
	}
	// deterministic tie-break
	if a.ID >= b.ID {
		return a
	}
	return b
}
