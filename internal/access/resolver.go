package access

import (
	"context"
	"fmt"

	"github.com/inkcircle/backend/internal/models"
	"github.com/inkcircle/backend/internal/repositories"
)

// Reason explains a denial. Denials are ordinary outcomes, not errors.
type Reason string

const (
	ReasonAuthRequired    Reason = "auth_required"
	ReasonFollowersOnly   Reason = "followers_only"
	ReasonConnectionsOnly Reason = "connections_only"
	ReasonPrivateContent  Reason = "private_content"
	ReasonUnavailable     Reason = "unavailable"
)

// Decision is the outcome of an access evaluation.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow is the positive decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny is a negative decision carrying its reason code.
func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Resolver evaluates whether a viewer may see a blog, given the blog's
// privacy tier and the relationship graph. It performs no writes and holds
// no state beyond the injected graph reader.
type Resolver struct {
	graph repositories.RelationshipReader
}

// NewResolver constructs a resolver over the provided graph reader.
func NewResolver(graph repositories.RelationshipReader) *Resolver {
	return &Resolver{graph: graph}
}

// CanView decides whether viewerID (empty string for anonymous) may view the
// blog. Evaluation short-circuits in tier order and issues at most one graph
// probe. A failing graph read denies and returns the error: the resolver
// fails closed, never open.
func (r *Resolver) CanView(ctx context.Context, viewerID string, blog models.Blog) (Decision, error) {
	if blog.Privacy == models.PrivacyPublic {
		return Allow(), nil
	}

	if viewerID == "" {
		return Deny(ReasonAuthRequired), nil
	}

	if viewerID == blog.AuthorID {
		return Allow(), nil
	}

	switch blog.Privacy {
	case models.PrivacyFollowers:
		probe, err := r.graph.Probe(ctx, viewerID, blog.AuthorID)
		if err != nil {
			return Deny(ReasonUnavailable), fmt.Errorf("probe relationship graph: %w", err)
		}
		// Direction matters: the author following the viewer grants nothing.
		if probe.ViewerFollowsAuthor {
			return Allow(), nil
		}
		return Deny(ReasonFollowersOnly), nil

	case models.PrivacyConnections:
		probe, err := r.graph.Probe(ctx, viewerID, blog.AuthorID)
		if err != nil {
			return Deny(ReasonUnavailable), fmt.Errorf("probe relationship graph: %w", err)
		}
		if probe.Connected {
			return Allow(), nil
		}
		return Deny(ReasonConnectionsOnly), nil
	}

	// private, and anything unrecognized, denies for everyone but the author.
	return Deny(ReasonPrivateContent), nil
}
