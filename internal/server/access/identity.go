// Package access decides who may do what: the caller identity, the
// authorization policy over the class hierarchy and the document
// protection gate.
package access

import (
	"context"
	"fmt"
)

// Kind is the principal kind behind a request.
type Kind int

const (
	Anonymous Kind = iota
	Professor
	Admin
)

func (k Kind) String() string {
	switch k {
	case Professor:
		return "professor"
	case Admin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Identity is the resolved caller. ID is zero for Anonymous.
type Identity struct {
	Kind Kind
	ID   int64
}

var AnonymousIdentity = Identity{Kind: Anonymous}

func ProfessorIdentity(id int64) Identity { return Identity{Kind: Professor, ID: id} }
func AdminIdentity(id int64) Identity     { return Identity{Kind: Admin, ID: id} }

func (i Identity) IsAnonymous() bool { return i.Kind == Anonymous }

func (i Identity) String() string {
	if i.Kind == Anonymous {
		return "anonymous"
	}
	return fmt.Sprintf("%s:%d", i.Kind, i.ID)
}

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(ctxKey{}).(Identity); ok {
		return id
	}
	return AnonymousIdentity
}
