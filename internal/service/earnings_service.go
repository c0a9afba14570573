package service

import (
	"context"

	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/internal/repository"
)

type EarningsService interface {
	Get(ctx context.Context, uid string) (*model.WorkerEarning, error)
}

type earningsService struct {
	repo repository.EarningRepository
}

func NewEarningsService(repo repository.EarningRepository) EarningsService {
	return &earningsService{repo: repo}
}

func (s *earningsService) Get(ctx context.Context, uid string) (*model.WorkerEarning, error) {
	return s.repo.Get(ctx, uid)
}
