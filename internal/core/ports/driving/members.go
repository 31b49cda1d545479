package driving

import (
	"context"

	"github.com/Schneison/unima/internal/core/domain"
)

// MemberService arranges a module's content as member trees.
type MemberService interface {
	// SelectSectionItems groups the module's sources by section.
	SelectSectionItems(ctx context.Context, module string) (map[int]*domain.SectionItem, error)

	// CreateMembers builds a member tree with the given architecture.
	CreateMembers(ctx context.Context, module string, opts domain.ArchitectureOptions) (*domain.RootMember, error)

	// SelectMembers builds the structure tree in ascending order.
	SelectMembers(ctx context.Context, module string) (*domain.RootMember, error)

	// ApplyAction applies a member action. For file_open it returns the location.
	ApplyAction(ctx context.Context, sourceID int64, arch domain.ArchitectureType, action domain.MemberAction) (string, error)

	// EditSource applies a manual source edit.
	EditSource(ctx context.Context, edit domain.SourceEdit) error

	// EditResource applies a manual resource edit.
	EditResource(ctx context.Context, edit domain.ResourceEdit) error
}
