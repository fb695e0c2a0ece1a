package model

import "time"

// Thread is a decoded detail page: the post itself and its comment tree.
type Thread struct {
	// Post describes the post the comments belong to.
	Post PostCandidate

	// Comments holds the top-level nodes of the comment listing in
	// the order Reddit returned them.
	Comments []Node
}

// Node is one entry of a comment listing. It is a closed set of variants:
// *CommentNode, *MoreNode and *OtherNode. Callers switch on the concrete type.
type Node interface {
	// Kind returns the Reddit kind discriminator ("t1", "more", ...).
	Kind() string

	node()
}

// Reddit kind discriminators.
const (
	KindComment = "t1"
	KindLink    = "t3"
	KindMore    = "more"
)

// CommentNode is a comment with its nested replies.
type CommentNode struct {
	ID        string
	Author    string
	Body      string
	CreatedAt time.Time
	Replies   []Node
}

// Kind implements Node.
func (*CommentNode) Kind() string { return KindComment }
func (*CommentNode) node()        {}

// MoreNode is a "load more comments" stub. It carries no text.
type MoreNode struct {
	Count    int
	ChildIDs []string
}

// Kind implements Node.
func (*MoreNode) Kind() string { return KindMore }
func (*MoreNode) node()        {}

// OtherNode is any listing entry whose kind is not understood.
type OtherNode struct {
	RawKind string
}

// Kind implements Node.
func (n *OtherNode) Kind() string { return n.RawKind }
func (*OtherNode) node()          {}

// CountComments returns the number of CommentNode values in the tree,
// including nested replies.
func CountComments(nodes []Node) int {
	count := 0
	stack := append([]Node(nil), nodes...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if c, ok := n.(*CommentNode); ok {
			count++
			stack = append(stack, c.Replies...)
		}
	}
	return count
}
