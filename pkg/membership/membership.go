// Package membership expands projects into their effective member sets.
package membership

import (
	"github.com/agentstation/teamsync/pkg/identity"
	"github.com/agentstation/teamsync/pkg/projects"
	"github.com/agentstation/teamsync/pkg/sets"
)

// Dangling is an inheriting subproject reference that names no project.
type Dangling struct {
	Project string // e-mail of the referencing project
	Ref     string // e-mail that could not be found
}

// Result is the outcome of resolving a single project.
type Result struct {
	Members  sets.Set
	Dangling []Dangling
}

// ResolveEffectiveMembers returns the direct member e-mails of node plus the
// effective members of every subproject it inherits from. Subprojects are
// looked up by exact canonical e-mail; unknown references are skipped and
// each project is expanded at most once, so cycles terminate.
func ResolveEffectiveMembers(tree *projects.Tree, node *projects.Project) sets.Set {
	return Resolve(tree, node).Members
}

// Resolve is ResolveEffectiveMembers that also reports dangling references.
func Resolve(tree *projects.Tree, node *projects.Project) Result {
	r := &resolver{
		tree:    tree,
		visited: make(sets.Set),
		result:  Result{Members: make(sets.Set)},
	}
	if node != nil {
		r.expand(node)
	}
	return r.result
}

type resolver struct {
	tree    *projects.Tree
	visited sets.Set
	result  Result
}

func (r *resolver) expand(p *projects.Project) {
	if r.visited.Has(p.Email) {
		return
	}
	r.visited.Add(p.Email)

	for _, m := range p.Members {
		r.result.Members.Add(m.Email)
	}

	for _, sub := range p.Subprojects {
		if !sub.Inherit {
			continue
		}
		child, ok := r.tree.Get(sub.Ref)
		if !ok {
			r.result.Dangling = append(r.result.Dangling, Dangling{Project: p.Email, Ref: sub.Ref})
			continue
		}
		r.expand(child)
	}
}

// Logins maps member e-mails to platform logins. E-mails without a linked
// account are returned in sorted order as unmapped.
func Logins(emails sets.Set, ids *identity.Map) (sets.Set, []string) {
	logins := make(sets.Set, emails.Len())
	var unmapped []string
	for _, email := range emails.Sorted() {
		login, ok := ids.Lookup(email)
		if !ok {
			unmapped = append(unmapped, email)
			continue
		}
		logins.Add(login)
	}
	return logins, unmapped
}
