/*
Package figure is the node infrastructure shared by every graphic object of a
figure document: figures, graphs, axes, traces, labels and shapes.

Nodes live in an index-addressed arena owned by a Tree. Parent and
subordinate links are arena indices, so the parent link is a lookup-only
back-reference and a whole subtree can be torn down without chasing pointer
cycles. A node's subordinates are split into a prefix of intrinsic components
and a suffix of public children.

Style attributes cascade: a node without an explicit value takes the nearest
explicit value of an ancestor, or the tree's Defaults. Every node caches its
local render bounds and the global shape those bounds map to; mutators
recompute the cache bottom-up, propagate it to ancestors and report the dirty
regions to the Host together with a reversible edit.

All operations run on the single editing goroutine that owns the tree. Tree
walks use explicit stacks.
*/
package figure
