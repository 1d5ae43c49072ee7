package compiler

import (
	"crypto/sha256"
	"encoding/hex"

	sitter "github.com/smacker/go-tree-sitter"
)

// Tree is a parsed module: its source text and tree-sitter syntax tree. Close
// releases the syntax tree; the source stays usable for emitting.
type Tree struct {
	Source []byte
	root   *sitter.Tree
}

// Root returns the program node.
func (t *Tree) Root() *sitter.Node {
	return t.root.RootNode()
}

// Hash returns the hex sha256 of the source.
func (t *Tree) Hash() string {
	return hash(t.Source)
}

// Close frees the syntax tree.
func (t *Tree) Close() {
	if t.root != nil {
		t.root.Close()
		t.root = nil
	}
}

func hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
