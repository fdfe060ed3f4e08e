// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package alignment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/homology/util"
)

// Alignment is one node of the alignment tree.
type Alignment struct {
	// Name uniquely identifies the alignment.
	Name string `yaml:"name"`
	// RefName is the ID of the reference sequence. It is empty for an
	// unconstrained alignment.
	RefName string `yaml:"ref,omitempty"`
	// Parent is the name of the parent alignment, or "".
	Parent string `yaml:"parent,omitempty"`
}

// Constrained reports whether the alignment has a reference sequence.
func (a Alignment) Constrained() bool { return a.RefName != "" }

func (a Alignment) String() string {
	var b strings.Builder
	b.WriteString(a.Name)
	if a.Constrained() {
		fmt.Fprintf(&b, "[%s]", a.RefName)
	}
	if a.Parent != "" {
		fmt.Fprintf(&b, "->%s", a.Parent)
	}
	return b.String()
}

// RequireConstrained returns an error if a is unconstrained.
func RequireConstrained(a Alignment) error {
	if !a.Constrained() {
		return errors.E(errors.Precondition, fmt.Sprintf("alignment %s is unconstrained; a constrained alignment is required", a.Name))
	}
	return nil
}

// Tree is a forest of alignments linked by parent edges. The parent graph is
// kept acyclic. A Tree is not safe for concurrent mutation.
type Tree struct {
	nodes map[string]Alignment
}

// NewTree builds a tree from the given alignments. Parent links are
// installed with SetParent, so unknown parents and cycles are reported.
func NewTree(alignments ...Alignment) (*Tree, error) {
	t := &Tree{nodes: make(map[string]Alignment, len(alignments))}
	for _, a := range alignments {
		parent := a.Parent
		a.Parent = ""
		if err := t.Add(a); err != nil {
			return nil, err
		}
		a.Parent = parent
	}
	for _, a := range alignments {
		if a.Parent == "" {
			continue
		}
		if err := t.SetParent(a.Name, a.Parent); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Add inserts a parentless alignment. Use SetParent to link it.
func (t *Tree) Add(a Alignment) error {
	if a.Name == "" {
		return errors.E(errors.Invalid, "alignment name is empty")
	}
	if _, ok := t.nodes[a.Name]; ok {
		return errors.E(errors.Exists, fmt.Sprintf("alignment %s already exists", a.Name))
	}
	if a.Parent != "" {
		return errors.E(errors.Invalid, fmt.Sprintf("alignment %s: parent must be set with SetParent", a.Name))
	}
	t.nodes[a.Name] = a
	return nil
}

// Remove deletes an alignment. Its children become roots.
func (t *Tree) Remove(name string) error {
	if _, err := t.Get(name); err != nil {
		return err
	}
	for _, c := range t.Children(name) {
		t.UnsetParent(c.Name)
	}
	delete(t.nodes, name)
	return nil
}

// Len returns the number of alignments.
func (t *Tree) Len() int { return len(t.nodes) }

// Names returns the alignment names in sorted order.
func (t *Tree) Names() []string {
	names := make([]string, 0, len(t.nodes))
	for name := range t.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Alignments returns all alignments sorted by name.
func (t *Tree) Alignments() []Alignment {
	names := t.Names()
	r := make([]Alignment, len(names))
	for i, name := range names {
		r[i] = t.nodes[name]
	}
	return r
}

// Get returns the named alignment. Unknown names yield errors.NotExist.
func (t *Tree) Get(name string) (Alignment, error) {
	a, ok := t.nodes[name]
	if !ok {
		return Alignment{}, errors.E(errors.NotExist,
			fmt.Sprintf("no alignment named %s%s", name, util.DidYouMean(name, t.Names())))
	}
	return a, nil
}

// SetParent links child to parent, replacing any existing parent. It fails
// with errors.Invalid if the link would create a cycle, and with
// errors.Precondition if the parent is unconstrained.
func (t *Tree) SetParent(child, parent string) error {
	c, err := t.Get(child)
	if err != nil {
		return err
	}
	p, err := t.Get(parent)
	if err != nil {
		return err
	}
	if child == parent {
		return errors.E(errors.Invalid, fmt.Sprintf("alignment %s cannot be its own parent", child))
	}
	if err := RequireConstrained(p); err != nil {
		return errors.E(err, fmt.Sprintf("cannot make %s the parent of %s", parent, child))
	}
	for a := p; ; {
		if a.Name == child {
			return errors.E(errors.Invalid,
				fmt.Sprintf("cannot make %s the parent of %s: %s is a descendant of %s", parent, child, parent, child))
		}
		if a.Parent == "" {
			break
		}
		a = t.nodes[a.Parent]
	}
	c.Parent = parent
	t.nodes[child] = c
	return nil
}

// UnsetParent removes child's parent link, if any.
func (t *Tree) UnsetParent(child string) {
	if c, ok := t.nodes[child]; ok {
		c.Parent = ""
		t.nodes[child] = c
	}
}

// Parent returns the parent of the named alignment.
func (t *Tree) Parent(name string) (Alignment, bool) {
	a, ok := t.nodes[name]
	if !ok || a.Parent == "" {
		return Alignment{}, false
	}
	return t.nodes[a.Parent], true
}

// Children returns the direct children of name, sorted by name.
func (t *Tree) Children(name string) []Alignment {
	var r []Alignment
	for _, a := range t.nodes {
		if a.Parent == name && name != "" {
			r = append(r, a)
		}
	}
	sort.Slice(r, func(i, j int) bool { return r[i].Name < r[j].Name })
	return r
}

// Descendants returns every alignment below name in depth-first preorder.
func (t *Tree) Descendants(name string) []Alignment {
	var r []Alignment
	var walk func(string)
	walk = func(n string) {
		for _, c := range t.Children(n) {
			r = append(r, c)
			walk(c.Name)
		}
	}
	walk(name)
	return r
}

// IsChildOf returns an errors.Precondition error unless child's parent is
// parent.
func (t *Tree) IsChildOf(child, parent string) error {
	c, err := t.Get(child)
	if err != nil {
		return err
	}
	if c.Parent != parent {
		return errors.E(errors.Precondition, fmt.Sprintf("alignment %s is not a child of %s", child, parent))
	}
	return nil
}

// Depth returns the number of parent links between name and its root.
func (t *Tree) Depth(name string) int {
	d := 0
	for a, ok := t.nodes[name]; ok && a.Parent != ""; a, ok = t.nodes[a.Parent] {
		d++
	}
	return d
}

// AncestorsOf returns the chain of alignments from node up to its root,
// starting with node itself. If stopAt is non-empty the chain ends with
// stopAt, and errors.Precondition is returned if stopAt is not on the path.
func (t *Tree) AncestorsOf(node, stopAt string) ([]Alignment, error) {
	a, err := t.Get(node)
	if err != nil {
		return nil, err
	}
	path := []Alignment{a}
	for a.Name != stopAt && a.Parent != "" {
		a = t.nodes[a.Parent]
		path = append(path, a)
	}
	if stopAt != "" && a.Name != stopAt {
		return nil, errors.E(errors.Precondition,
			fmt.Sprintf("alignment %s is not an ancestor of %s", stopAt, node))
	}
	return path, nil
}

// AncestorConstrainingReference returns the closest alignment on the path
// from node to its root, node included, whose reference is refName.
func (t *Tree) AncestorConstrainingReference(node, refName string) (Alignment, error) {
	path, err := t.AncestorsOf(node, "")
	if err != nil {
		return Alignment{}, err
	}
	for _, a := range path {
		if a.RefName == refName && refName != "" {
			return a, nil
		}
	}
	return Alignment{}, errors.E(errors.NotExist,
		fmt.Sprintf("no ancestor of alignment %s is constrained by reference %s", node, refName))
}
