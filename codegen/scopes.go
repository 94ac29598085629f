package codegen

import "github.com/llir/llvm/ir/metadata"

// ScopeStack is the stack of active debug scopes.  A scope is pushed when the
// body of a function begins and popped when it ends, whether or not the body
// was generated successfully.
type ScopeStack struct {
	root   metadata.Field
	scopes []*metadata.DISubprogram
}

// NewScopeStack creates an empty stack whose root scope is root: usually the
// compile unit.
func NewScopeStack(root metadata.Field) *ScopeStack {
	return &ScopeStack{root: root}
}

// Push makes scope the current scope.
func (ss *ScopeStack) Push(scope *metadata.DISubprogram) {
	ss.scopes = append(ss.scopes, scope)
}

// Pop removes the current scope.
func (ss *ScopeStack) Pop() {
	if len(ss.scopes) == 0 {
		panic("pop of empty debug scope stack")
	}

	ss.scopes = ss.scopes[:len(ss.scopes)-1]
}

// Current returns the innermost scope or the root scope if no scope is
// active.
func (ss *ScopeStack) Current() metadata.Field {
	if len(ss.scopes) == 0 {
		return ss.root
	}

	return ss.scopes[len(ss.scopes)-1]
}

// Depth returns the number of active scopes.
func (ss *ScopeStack) Depth() int {
	return len(ss.scopes)
}
