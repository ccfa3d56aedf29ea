// Package nodestore implements coordplane's encrypted node forest
// (spec.md §4.1): an id-plus-child-index arena whose mutations preserve
// single-rooted subtree topology and forbid cycles. It is grounded on
// original_source/src/nodes.rs, the prototype this spec was distilled
// from — the move-rejection table and pre-order delete semantics are
// carried over verbatim in meaning.
package nodestore

import (
	"sync"

	"github.com/vaultmesh/coordplane/internal/apperr"
	"github.com/vaultmesh/coordplane/internal/envelope"
)

// LockedNode is an encrypted node in the forest; its Content is opaque to
// the server (spec.md §3).
type LockedNode struct {
	ID       envelope.Uid       `json:"id"`
	ParentID envelope.Uid       `json:"parent_id"`
	Content  envelope.Encrypted `json:"content"`
	Dirty    bool               `json:"dirty"`
}

// Store is the forest of LockedNode plus its derived parent->children
// index. One mutex guards the whole store (spec.md §5: "one
// mutual-exclusion domain per store").
type Store struct {
	mu       sync.Mutex
	nodes    map[envelope.Uid]LockedNode
	branches map[envelope.Uid][]envelope.Uid
}

// New returns an empty forest.
func New() *Store {
	return &Store{
		nodes:    make(map[envelope.Uid]LockedNode),
		branches: make(map[envelope.Uid][]envelope.Uid),
	}
}

// Add inserts node, updating the branches index. spec.md
// §4.1 flags the historical type as permitting overwrite-on-duplicate-id
// while calling out that a faithful implementation should treat Add as
// create-only; Add here follows that guidance and rejects a duplicate id
// rather than silently replacing it and leaving the old parent's child
// list stale (see DESIGN.md's Open Question notes).
func (s *Store) Add(node LockedNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[node.ID]; exists {
		return apperr.NewUnauthorised("node id already exists")
	}
	s.nodes[node.ID] = node
	s.branches[node.ParentID] = append(s.branches[node.ParentID], node.ID)
	return nil
}

// GetAll returns a snapshot of every node, in unspecified order.
func (s *Store) GetAll() []LockedNode {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LockedNode, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	return out
}

// MoveTo reparents id under newParent, per the rejection table in spec.md
// §4.1/§8:
//   - newParent == NoParentID: NotAllowed (at most one root is formed this way)
//   - newParent == id: NotAllowed
//   - id's current parent == newParent: NotAllowed (no-op move)
//   - any ancestor of newParent equals id: NotAllowed (would cycle)
//   - an ancestor of newParent is missing from the node map: NotFound(newParent)
//   - id itself is missing: NotFound(id)
func (s *Store) MoveTo(id, newParent envelope.Uid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if newParent == envelope.NoParentID {
		return apperr.NewUnauthorised("cannot move to NO_PARENT_ID")
	}

	current := newParent
	for current != envelope.NoParentID {
		if current == id {
			return apperr.NewUnauthorised("move would create a cycle")
		}
		node, ok := s.nodes[current]
		if !ok {
			return apperr.NewNotFound(newParent.String())
		}
		current = node.ParentID
	}

	node, ok := s.nodes[id]
	if !ok {
		return apperr.NewNotFound(id.String())
	}
	if node.ParentID == newParent {
		return apperr.NewUnauthorised("already a child of newParent")
	}

	s.unlinkFromParent(node.ParentID, id)
	node.ParentID = newParent
	s.nodes[id] = node
	s.branches[newParent] = append(s.branches[newParent], id)
	return nil
}

// Delete removes id and all of its transitive descendants, returning their
// ids in pre-order (parent before children, siblings in insertion order).
// A missing id returns an empty list.
func (s *Store) Delete(id envelope.Uid) []envelope.Uid {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []envelope.Uid
	s.deleteRec(id, &removed)
	return removed
}

// deleteRec performs the actual pre-order recursive removal; callers must
// already hold s.mu.
func (s *Store) deleteRec(id envelope.Uid, removed *[]envelope.Uid) {
	node, ok := s.nodes[id]
	if !ok {
		return
	}
	delete(s.nodes, id)
	s.unlinkFromParent(node.ParentID, id)
	*removed = append(*removed, id)

	children := s.branches[id]
	delete(s.branches, id)
	for _, child := range children {
		s.deleteRec(child, removed)
	}
}

// DeleteList recursively deletes every id in ids, returning the
// deduplicated concatenation of each Delete(x) call, preserving
// first-encounter order (spec.md §4.1/§8).
func (s *Store) DeleteList(ids []envelope.Uid) []envelope.Uid {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []envelope.Uid
	for _, id := range ids {
		s.deleteRec(id, &all)
	}

	seen := make(map[envelope.Uid]bool, len(all))
	out := make([]envelope.Uid, 0, len(all))
	for _, id := range all {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Purge empties the store.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[envelope.Uid]LockedNode)
	s.branches = make(map[envelope.Uid][]envelope.Uid)
}

func (s *Store) unlinkFromParent(parentID, childID envelope.Uid) {
	siblings := s.branches[parentID]
	for i, sib := range siblings {
		if sib == childID {
			s.branches[parentID] = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
}
