package directory

import (
	"context"
	"strings"
	"time"

	"dappdir/internal/types"
)

const (
	MsgSlugUnderivable = "Slug could not be derived from name"
	MsgSlugMalformed   = "Slug must contain only lowercase letters, digits and hyphens"
)

// ResolveSlug returns the caller's slug if given, otherwise one derived from the name.
// The second return is a validation message when no usable slug results.
func ResolveSlug(in types.RecordInput) (string, string) {
	if slug := strings.TrimSpace(in.Slug); slug != "" {
		if GenerateSlug(slug) != slug {
			return "", MsgSlugMalformed
		}
		return slug, ""
	}
	slug := GenerateSlug(in.Name)
	if slug == "" {
		return "", MsgSlugUnderivable
	}
	return slug, ""
}

// BuildRecord turns validated input into the record to persist. existing is the currently stored record
// for the same slug, or nil on first creation: its CreatedAt is kept and UpdatedAt always moves forward.
func BuildRecord(slug string, in types.RecordInput, existing *types.Record, now time.Time) types.Record {
	now = now.UTC().Truncate(time.Millisecond)
	createdAt := types.Timestamp(now)
	if t, ok := types.ParseInputTimestamp(strings.TrimSpace(in.CreatedAt)); ok {
		createdAt = types.Timestamp(t)
	}
	if existing != nil {
		if existing.CreatedAt != "" {
			createdAt = existing.CreatedAt
		}
		if prev := types.ParseTimestamp(existing.UpdatedAt); !now.After(prev) {
			now = prev.Add(time.Millisecond)
		}
	}
	return types.Record{
		Slug:        slug,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Logo:        strings.TrimSpace(in.Logo),
		Tags:        in.Tags,
		Chains:      in.Chains,
		Website:     strings.TrimSpace(in.Website),
		Twitter:     strings.TrimSpace(in.Twitter),
		GitHub:      strings.TrimSpace(in.GitHub),
		IsFeatured:  in.IsFeatured,
		CreatedAt:   createdAt,
		UpdatedAt:   types.Timestamp(now),
	}
}

// Save validates in, resolves its slug, stamps timestamps against any stored version and upserts.
// Validation problems come back as messages with a nil error; store failures as the error.
func (s *Service) Save(ctx context.Context, in types.RecordInput) (string, []string, error) {
	if errs := Validate(in); len(errs) > 0 {
		return "", errs, nil
	}
	slug, msg := ResolveSlug(in)
	if msg != "" {
		return "", []string{msg}, nil
	}
	var existing *types.Record
	prev, ok, err := s.get(ctx, slug)
	if err != nil {
		return "", nil, err
	}
	if ok {
		existing = &prev
	}
	rec := BuildRecord(slug, in, existing, timeNow())
	if err := s.Upsert(ctx, slug, rec); err != nil {
		return "", nil, err
	}
	return slug, nil, nil
}
