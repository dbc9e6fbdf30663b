package services

import (
	"context"
	"strings"

	"github.com/vitaup/VitaUpBack/internal/models"
)

type ProfileService struct{}

func NewProfileService() *ProfileService {
	return &ProfileService{}
}

// ValidatePatch checks a profile edit. The plan tier is not editable
// here and an edit must change something.
func (s *ProfileService) ValidatePatch(patch *models.ProfilePatch) error {
	if patch.PlanType != nil {
		return &ValidationError{Field: "plan_type", Message: "plan_type cannot be changed"}
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return &ValidationError{Field: "name", Message: "name must not be empty"}
		}
		patch.Name = &name
	}
	patch.UpdatedAt = nil
	if patch.IsEmpty() {
		return &ValidationError{Message: "no fields to update"}
	}
	return validateStruct(patch)
}

func (s *ProfileService) UpdateProfile(ctx context.Context, updater ProfileUpdater, patch models.ProfilePatch) error {
	if err := s.ValidatePatch(&patch); err != nil {
		return err
	}
	return updater.UpdateProfile(ctx, patch)
}
