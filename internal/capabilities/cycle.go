package capabilities

// WouldCreateCycle reports whether adding parentID as a parent of childID would
// create a cycle in the capability chain. parents maps a capability ID to its
// current parent IDs.
func WouldCreateCycle(childID, parentID string, parents map[string][]string) bool {
	if childID == parentID {
		return true
	}
	// A cycle appears iff childID is already reachable from parentID.
	seen := map[string]bool{}
	stack := []string{parentID}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == childID {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		stack = append(stack, parents[cur]...)
	}
	return false
}

// Transitive returns every capability reachable through parent chains from id,
// excluding id itself, in depth-first order without duplicates.
func Transitive(id string, parents map[string][]string) []string {
	var out []string
	seen := map[string]bool{id: true}
	var walk func(string)
	walk = func(cur string) {
		for _, p := range parents[cur] {
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
			walk(p)
		}
	}
	walk(id)
	return out
}
