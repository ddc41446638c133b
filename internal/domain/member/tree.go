package member

import "context"

// maxTreeDepth bounds subtree recursion. The visited set already guarantees
// termination; the bound catches graphs corrupted outside the normal write
// path before the response grows without sense.
const maxTreeDepth = 512

// Tree returns the whole family as a tree rooted at the single member with
// no parents. Returns nil when no members exist, ErrNoRootMember when
// members exist but every one of them has a parent link.
func (s *Service) Tree(ctx context.Context) (*Node, error) {
	members, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	var root *Member
	for i := range members {
		if members[i].MotherID == nil && members[i].FatherID == nil {
			root = &members[i]
			break
		}
	}
	if root == nil {
		return nil, ErrNoRootMember
	}

	return buildSubtree(*root, members, DirectionDescendants)
}

// Subtree returns the ancestors or descendants reachable from rootID. Each
// member is attached at most once; traversal terminates even if the stored
// graph contains a cycle.
func (s *Service) Subtree(ctx context.Context, rootID int64, direction Direction) (*Node, error) {
	if direction != DirectionAncestors && direction != DirectionDescendants {
		direction = DirectionDescendants
	}

	members, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var root *Member
	for i := range members {
		if members[i].ID == rootID {
			root = &members[i]
			break
		}
	}
	if root == nil {
		return nil, ErrMemberNotFound
	}

	return buildSubtree(*root, members, direction)
}

func buildSubtree(root Member, members []Member, direction Direction) (*Node, error) {
	byID := make(map[int64]Member, len(members))
	byParent := make(map[int64][]Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
		if m.MotherID != nil {
			byParent[*m.MotherID] = append(byParent[*m.MotherID], m)
		}
		if m.FatherID != nil {
			byParent[*m.FatherID] = append(byParent[*m.FatherID], m)
		}
	}

	visited := map[int64]struct{}{root.ID: {}}
	node := &Node{Member: root, Children: []*Node{}}
	if err := expand(node, byID, byParent, direction, visited, 1); err != nil {
		return nil, err
	}
	return node, nil
}

func expand(node *Node, byID map[int64]Member, byParent map[int64][]Member, direction Direction, visited map[int64]struct{}, depth int) error {
	if depth > maxTreeDepth {
		return ErrGraphCorrupted
	}

	var next []Member
	if direction == DirectionDescendants {
		next = byParent[node.ID]
	} else {
		for _, parentID := range []*int64{node.MotherID, node.FatherID} {
			if parentID == nil {
				continue
			}
			if parent, ok := byID[*parentID]; ok {
				next = append(next, parent)
			}
		}
	}

	for _, m := range next {
		if _, seen := visited[m.ID]; seen {
			continue
		}
		visited[m.ID] = struct{}{}

		child := &Node{Member: m, Children: []*Node{}}
		if err := expand(child, byID, byParent, direction, visited, depth+1); err != nil {
			return err
		}
		node.Children = append(node.Children, child)
	}

	return nil
}
