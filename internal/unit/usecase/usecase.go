package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/unit"
	"github.com/fekuna/omnipos-sales-service/internal/unit/dto"
	"github.com/fekuna/omnipos-sales-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type unitUseCase struct {
	repo   unit.Repository
	logger logger.ZapLogger
}

func NewUnitUseCase(repo unit.Repository, log logger.ZapLogger) unit.UseCase {
	return &unitUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *unitUseCase) CreateUnit(ctx context.Context, input *dto.CreateUnitInput) (*model.Unit, error) {
	name, abbr, err := normalize(input.Name, input.Abbreviation)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &model.Unit{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:         name,
		Abbreviation: abbr,
	}

	if err := uc.repo.Create(ctx, u); err != nil {
		uc.logger.Error("failed to create unit", zap.String("name", name), zap.Error(err))
		return nil, model.Persistence(err)
	}
	return u, nil
}

func (uc *unitUseCase) GetUnit(ctx context.Context, id string) (*model.Unit, error) {
	u, err := uc.repo.FindByID(ctx, id)
	return u, model.Persistence(err)
}

func (uc *unitUseCase) ListUnits(ctx context.Context, filters *dto.UnitFilters) ([]model.Unit, int, error) {
	units, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, model.Persistence(err)
	}
	return units, count, nil
}

func (uc *unitUseCase) UpdateUnit(ctx context.Context, input *dto.UpdateUnitInput) (*model.Unit, error) {
	name, abbr, err := normalize(input.Name, input.Abbreviation)
	if err != nil {
		return nil, err
	}

	u, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, model.Persistence(err)
	}

	u.Name = name
	u.Abbreviation = abbr
	u.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, u); err != nil {
		uc.logger.Error("failed to update unit", zap.String("unit_id", u.ID), zap.Error(err))
		return nil, model.Persistence(err)
	}
	return u, nil
}

func (uc *unitUseCase) DeleteUnit(ctx context.Context, id string) error {
	if _, err := uc.repo.FindByID(ctx, id); err != nil {
		return model.Persistence(err)
	}

	n, err := uc.repo.CountProducts(ctx, id)
	if err != nil {
		return model.Persistence(err)
	}
	if n > 0 {
		return model.Validationf("unit is used by %d product(s)", n)
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		uc.logger.Error("failed to delete unit", zap.String("unit_id", id), zap.Error(err))
		return model.Persistence(err)
	}
	return nil
}

func normalize(name, abbreviation string) (string, string, error) {
	name = strings.TrimSpace(name)
	abbreviation = strings.TrimSpace(abbreviation)
	if name == "" {
		return "", "", model.Validationf("unit name is required")
	}
	if abbreviation == "" {
		abbreviation = name
	}
	return name, abbreviation, nil
}
