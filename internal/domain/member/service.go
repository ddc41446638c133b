package member

import (
	"context"
	"fmt"
	"strings"
)

const defaultPerPage = 10

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Member, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, query string, page, perPage int) ([]Member, error) {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if page < 0 {
		page = 0
	}
	return s.repo.Search(ctx, strings.TrimSpace(query), page*perPage, perPage)
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*Member, error) {
	if err := validatePerson(input.Name, input.LastName, input.Gender); err != nil {
		return nil, err
	}
	if (input.Image == nil) != (input.ImageType == nil) {
		return nil, ErrInvalidImage
	}

	result := Member{
		Name:         strings.TrimSpace(input.Name),
		LastName:     strings.TrimSpace(input.LastName),
		Gender:       input.Gender,
		Birthday:     input.Birthday,
		Image:        input.Image,
		ImageType:    input.ImageType,
		PersonalInfo: input.PersonalInfo,
		MotherID:     input.MotherID,
		FatherID:     input.FatherID,
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := requireParents(ctx, tx, input.MotherID, input.FatherID); err != nil {
			return err
		}
		return tx.Create(ctx, &result)
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*Member, error) {
	if input.Gender != nil {
		if *input.Gender != GenderMale && *input.Gender != GenderFemale {
			return nil, ErrInvalidGender
		}
	}
	if (input.Image == nil) != (input.ImageType == nil) {
		return nil, ErrInvalidImage
	}

	var result Member
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		current, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if input.Name != nil {
			current.Name = strings.TrimSpace(*input.Name)
		}
		if input.LastName != nil {
			current.LastName = strings.TrimSpace(*input.LastName)
		}
		if input.Gender != nil {
			current.Gender = *input.Gender
		}
		if input.Birthday != nil {
			current.Birthday = input.Birthday
		}
		if input.Image != nil {
			current.Image = input.Image
			current.ImageType = input.ImageType
		}

		switch {
		case input.ClearMother:
			current.MotherID = nil
		case input.MotherID != nil:
			if err := requireParentLink(ctx, tx, id, *input.MotherID); err != nil {
				return err
			}
			current.MotherID = input.MotherID
		}

		switch {
		case input.ClearFather:
			current.FatherID = nil
		case input.FatherID != nil:
			if err := requireParentLink(ctx, tx, id, *input.FatherID); err != nil {
				return err
			}
			current.FatherID = input.FatherID
		}

		switch {
		case input.ClearInfo:
			current.PersonalInfo = nil
		case input.PersonalInfo != nil:
			current.PersonalInfo = input.PersonalInfo
		}

		if err := tx.Update(ctx, current); err != nil {
			return err
		}

		result = *current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Delete removes the member; any child referencing it as mother or father
// keeps its row with the link cleared, matching the schema's ON DELETE SET
// NULL behavior.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		exists, err := tx.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrMemberNotFound
		}
		if err := tx.ClearParentRefs(ctx, id); err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
}

func validatePerson(name, lastName, gender string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(lastName) == "" {
		return fmt.Errorf("last name is required")
	}
	if gender != GenderMale && gender != GenderFemale {
		return ErrInvalidGender
	}
	return nil
}

func requireParents(ctx context.Context, repo Repository, motherID, fatherID *int64) error {
	for _, parentID := range []*int64{motherID, fatherID} {
		if parentID == nil {
			continue
		}
		exists, err := repo.Exists(ctx, *parentID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrParentNotFound
		}
	}
	return nil
}

// requireParentLink checks that parentID exists and that linking it would not
// make memberID its own ancestor. The walk follows the proposed parent's
// mother/father chain; finding memberID there means the link closes a cycle.
func requireParentLink(ctx context.Context, repo Repository, memberID, parentID int64) error {
	if parentID == memberID {
		return ErrCycleWouldForm
	}

	exists, err := repo.Exists(ctx, parentID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrParentNotFound
	}

	visited := map[int64]struct{}{}
	queue := []int64{parentID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if id == memberID {
			return ErrCycleWouldForm
		}
		// Shared ancestors are reachable through both parent chains; skip
		// anything already walked.
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}

		ancestor, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if ancestor.MotherID != nil {
			queue = append(queue, *ancestor.MotherID)
		}
		if ancestor.FatherID != nil {
			queue = append(queue, *ancestor.FatherID)
		}
	}

	return nil
}
