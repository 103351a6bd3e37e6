package deal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/dealspot-cloud/dealdex/internal/domain"
)

// patchable is the subset of a deal that a JSON Patch may touch. Applying the
// patch against this template instead of the full deal keeps server-owned
// fields out of reach.
type patchable struct {
	Status domain.Status `json:"status"`
}

// Patch applies an RFC 6902 patch to a deal's mutable fields and rewrites the
// search document. Unlike Create and Update there is no compensating delete:
// the record held a valid state before the patch, so an index failure only
// leaves the search document stale, not missing.
func (s *Service) Patch(ctx context.Context, actorID, id string, patchBody []byte) (*domain.Deal, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.PostedBy != actorID {
		return nil, fmt.Errorf("deal %s belongs to another actor: %w", id, domain.ErrForbidden)
	}

	patch, err := jsonpatch.DecodePatch(patchBody)
	if err != nil {
		return nil, fmt.Errorf("decode patch: %w: %v", domain.ErrValidation, err)
	}

	target, err := json.Marshal(patchable{Status: existing.Status})
	if err != nil {
		return nil, fmt.Errorf("marshal patch target: %w", err)
	}
	patched, err := patch.Apply(target)
	if err != nil {
		return nil, fmt.Errorf("apply patch: %w: %v", domain.ErrValidation, err)
	}

	var p patchable
	dec := json.NewDecoder(bytes.NewReader(patched))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("patch targets an immutable field: %w: %v", domain.ErrValidation, err)
	}
	if !p.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", p.Status, domain.ErrValidation)
	}

	existing.Status = p.Status
	existing.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("patch deal: %w", err)
	}
	if err := s.index.Index(ctx, domain.ProjectDeal(existing)); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexWrite, err)
	}
	return existing, nil
}
