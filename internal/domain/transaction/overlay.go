package transaction

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"budgetmint/internal/infrastructure/store"
)

const (
	maxTags      = 20
	maxTagLength = 40
	maxNotes     = 2000
)

// OverlayPatch is a partial edit of the user-owned fields. Nil fields are left
// unchanged; an empty UserCategory clears the override.
type OverlayPatch struct {
	UserCategory *string   `json:"userCategory"`
	Tags         *[]string `json:"tags"`
	Notes        *string   `json:"notes"`
}

// Normalize trims tags, drops empty and duplicate ones, and validates limits.
func (p *OverlayPatch) Normalize() error {
	if p.UserCategory == nil && p.Tags == nil && p.Notes == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	if p.UserCategory != nil {
		c := strings.TrimSpace(*p.UserCategory)
		p.UserCategory = &c
	}

	if p.Tags != nil {
		seen := make(map[string]struct{}, len(*p.Tags))
		tags := make([]string, 0, len(*p.Tags))
		for _, tag := range *p.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if utf8.RuneCountInString(tag) > maxTagLength {
				return fmt.Errorf("%w: tag %q exceeds %d characters", ErrInvalidInput, tag, maxTagLength)
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
		if len(tags) > maxTags {
			return fmt.Errorf("%w: at most %d tags allowed", ErrInvalidInput, maxTags)
		}
		p.Tags = &tags
	}

	if p.Notes != nil && utf8.RuneCountInString(*p.Notes) > maxNotes {
		return fmt.Errorf("%w: notes exceed %d characters", ErrInvalidInput, maxNotes)
	}
	return nil
}

// Fields is the stored update for the patch.
func (p *OverlayPatch) Fields() store.Fields {
	f := store.Fields{}
	if p.UserCategory != nil {
		if *p.UserCategory == "" {
			f[FieldUserCategory] = nil
		} else {
			f[FieldUserCategory] = *p.UserCategory
		}
	}
	if p.Tags != nil {
		f[FieldTags] = *p.Tags
	}
	if p.Notes != nil {
		f[FieldNotes] = *p.Notes
	}
	return f
}
