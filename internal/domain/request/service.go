package request

import (
	"context"
	"fmt"
	"strings"
	"time"

	"family-tree-go/internal/domain/member"
	"github.com/google/uuid"
)

const defaultPerPage = 10

type Service struct {
	repo    Repository
	members ParentChecker
	now     func() time.Time
}

func NewService(repo Repository, members ParentChecker) *Service {
	return &Service{
		repo:    repo,
		members: members,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Submit(ctx context.Context, input SubmitInput) (*AddRequest, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if strings.TrimSpace(input.LastName) == "" {
		return nil, fmt.Errorf("last name is required")
	}
	if input.Gender != member.GenderMale && input.Gender != member.GenderFemale {
		return nil, member.ErrInvalidGender
	}
	if strings.TrimSpace(input.SubmittedBy) == "" {
		return nil, fmt.Errorf("submitter is required")
	}

	for _, parentID := range []*int64{input.MotherID, input.FatherID} {
		if parentID == nil {
			continue
		}
		exists, err := s.members.Exists(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, member.ErrParentNotFound
		}
	}

	result := AddRequest{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		LastName:     strings.TrimSpace(input.LastName),
		Gender:       input.Gender,
		Birthday:     input.Birthday,
		Image:        input.Image,
		ImageType:    input.ImageType,
		PersonalInfo: input.PersonalInfo,
		MotherID:     input.MotherID,
		FatherID:     input.FatherID,
		Status:       StatusPending,
		SubmittedBy:  strings.TrimSpace(input.SubmittedBy),
		SubmittedAt:  s.now(),
	}

	if err := s.repo.Create(ctx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) Get(ctx context.Context, id string) (*AddRequest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, page, perPage int) ([]AddRequest, error) {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if page < 0 {
		page = 0
	}
	return s.repo.List(ctx, page*perPage, perPage)
}

// Resolve transitions a pending request. Approval creates the proposed
// member in the same transaction and returns it; disapproval records the
// reviewer and reason without creating anything. The transition is
// optimistic: the update only matches rows still pending, so concurrent
// resolutions serialize to exactly one winner.
func (s *Service) Resolve(ctx context.Context, id string, decision Decision, reviewer, reason string) (*AddRequest, *member.Member, error) {
	if decision != DecisionApproved && decision != DecisionDisapproved {
		return nil, nil, ErrInvalidDecision
	}
	if strings.TrimSpace(reviewer) == "" {
		return nil, nil, fmt.Errorf("reviewer is required")
	}

	var (
		resolved *AddRequest
		created  *member.Member
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		var reasonPtr *string
		if reason = strings.TrimSpace(reason); reason != "" {
			reasonPtr = &reason
		}

		rows, err := tx.MarkResolved(ctx, id, string(decision), reviewer, s.now(), reasonPtr)
		if err != nil {
			return err
		}
		if rows == 0 {
			if _, err := tx.GetByID(ctx, id); err != nil {
				return err
			}
			return ErrAlreadyResolved
		}

		resolved, err = tx.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if decision == DecisionApproved {
			created = &member.Member{
				Name:         resolved.Name,
				LastName:     resolved.LastName,
				Gender:       resolved.Gender,
				Birthday:     resolved.Birthday,
				Image:        resolved.Image,
				ImageType:    resolved.ImageType,
				PersonalInfo: resolved.PersonalInfo,
				MotherID:     resolved.MotherID,
				FatherID:     resolved.FatherID,
			}
			if err := tx.InsertMember(ctx, created); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return resolved, created, nil
}
