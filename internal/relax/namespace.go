package relax

import (
	"fmt"

	"github.com/roach88/qrelax/internal/ir"
)

// DefaultNamespacePrefix starts every erased variable name.
const DefaultNamespacePrefix = "_"

// Namespace mints the names of erased variables.
//
// A name depends only on the origin label of the condition and the role
// of the erased term (origin "t3", object → "?_t3_o"). Two Expand tasks
// erasing the same term therefore mint the same variable without sharing
// a counter, and structurally identical relaxations get identical keys.
//
// A Namespace is immutable and safe for concurrent use. Create one per
// repair request when queries may already use the default prefix.
type Namespace struct {
	prefix string
}

// NewNamespace creates a namespace. An empty prefix uses
// DefaultNamespacePrefix.
func NewNamespace(prefix string) *Namespace {
	if prefix == "" {
		prefix = DefaultNamespacePrefix
	}
	return &Namespace{prefix: prefix}
}

// Erased returns the erased variable for the term at role of a condition
// descending from origin.
func (n *Namespace) Erased(origin string, role ir.Role) ir.Term {
	return ir.Erased(fmt.Sprintf("%s%s_%s", n.prefix, origin, role.Short()))
}
