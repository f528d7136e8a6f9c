package services

import (
	"context"
	"fmt"

	"github.com/sherdorkhudoyberdi/expense-tracker/internal/core"
)

// CategoryDeleteOutcome tells the caller what a delete actually did: global
// categories are never physically removed, only hidden for the requester.
type CategoryDeleteOutcome string

const (
	CategoryDeleted CategoryDeleteOutcome = "deleted"
	CategoryHidden  CategoryDeleteOutcome = "hidden"
)

// CategoryService resolves category visibility and delete semantics.
type CategoryService struct {
	store Store
}

func NewCategoryService(store Store) *CategoryService {
	return &CategoryService{store: store}
}

// Create adds a personal category for the owner. Category names are unique
// across the whole table.
func (s *CategoryService) Create(ctx context.Context, ownerID int64, name string, flowType core.FlowType) (core.Category, error) {
	cat := core.Category{
		OwnerID: &ownerID,
		Name:    name,
		Type:    flowType,
	}
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.store.CreateCategory(ctx, &cat); err != nil {
		return core.Category{}, err
	}
	return cat, nil
}

// CreateGlobal adds an administrator-provided category visible to every
// user.
func (s *CategoryService) CreateGlobal(ctx context.Context, name string, flowType core.FlowType) (core.Category, error) {
	cat := core.Category{
		Name: name,
		Type: flowType,
	}
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.store.CreateCategory(ctx, &cat); err != nil {
		return core.Category{}, err
	}
	return cat, nil
}

// List returns the categories visible to the owner: their own plus global
// ones they have not hidden.
func (s *CategoryService) List(ctx context.Context, ownerID int64) ([]core.Category, error) {
	return s.store.ListCategories(ctx, ownerID)
}

// Delete removes the owner's own category outright, hides a global one for
// this owner only, and refuses to touch another user's category.
func (s *CategoryService) Delete(ctx context.Context, ownerID, categoryID int64) (CategoryDeleteOutcome, error) {
	cat, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return "", err
	}

	switch {
	case !cat.Global() && *cat.OwnerID == ownerID:
		if err := s.store.DeleteCategory(ctx, categoryID); err != nil {
			return "", fmt.Errorf("delete category %d: %w", categoryID, err)
		}
		return CategoryDeleted, nil
	case cat.Global():
		if err := s.store.HideCategory(ctx, ownerID, categoryID); err != nil {
			return "", fmt.Errorf("hide category %d: %w", categoryID, err)
		}
		return CategoryHidden, nil
	default:
		return "", core.ErrForbidden
	}
}
