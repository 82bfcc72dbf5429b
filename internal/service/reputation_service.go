package service

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"circlerate/internal/domain"
	"circlerate/internal/repository"
)

// ReputationService es el motor de agregación: convierte el historial de
// ratings de un usuario en un ranking de rasgos y en la clasificación de
// sentimiento por círculo.
//
// El ledger es la fuente de verdad; cada lectura repone las estadísticas
// desde el historial completo. La AggregateCache incremental es solo una
// caché verificable contra ese replay.
type ReputationService struct {
	logger  *zap.Logger
	traits  repository.TraitRepository
	ratings repository.RatingRepository
	circles repository.CircleRepository
}

func NewReputationService(logger *zap.Logger, traits repository.TraitRepository, ratings repository.RatingRepository, circles repository.CircleRepository) *ReputationService {
	return &ReputationService{
		logger:  logger,
		traits:  traits,
		ratings: ratings,
		circles: circles,
	}
}

// ComputeTraitRanking agrupa todos los ratings del usuario por rasgo, a
// través de todos los círculos, y ordena descendente por promedio. Los
// rasgos sin ratings aparecen igual, con promedio 0 y count 0. El
// desempate conserva el orden del catálogo (sort estable).
func (s *ReputationService) ComputeTraitRanking(ctx context.Context, rateeID string) ([]domain.TraitScore, error) {
	traits, err := s.traits.ListOrdered(ctx)
	if err != nil {
		return nil, err
	}

	ratings, err := s.ratings.ListByRatee(ctx, rateeID)
	if err != nil {
		return nil, err
	}

	cells := make(map[string]domain.AggregateCell, len(traits))
	for _, r := range ratings {
		cell := cells[r.TraitID]
		cell.Apply(r.Value)
		cells[r.TraitID] = cell
	}

	scores := make([]domain.TraitScore, 0, len(traits))
	for _, t := range traits {
		cell := cells[t.ID]
		scores = append(scores, domain.TraitScore{
			Trait:         t,
			Average:       cell.Average(),
			Count:         cell.Count,
			PositiveCount: cell.PositiveCount,
			NegativeCount: cell.NegativeCount,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Average > scores[j].Average
	})
	return scores, nil
}

// TopPositiveTraits devuelve los primeros limit rasgos con promedio
// positivo, en orden de ranking. Puede devolver menos de limit, o nada;
// nunca es un error.
func (s *ReputationService) TopPositiveTraits(ctx context.Context, rateeID string, limit int) ([]domain.Trait, error) {
	if limit <= 0 {
		limit = 2
	}
	scores, err := s.ComputeTraitRanking(ctx, rateeID)
	if err != nil {
		return nil, err
	}

	top := make([]domain.Trait, 0, limit)
	for _, score := range scores {
		if score.Average <= 0 {
			continue
		}
		top = append(top, score.Trait)
		if len(top) == limit {
			break
		}
	}
	return top, nil
}

// ClassifyCircle agrupa todos los ratings del usuario dentro de un
// círculo, a través de todos los rasgos. Por debajo del piso de muestras
// el círculo queda en neutral.
func (s *ReputationService) ClassifyCircle(ctx context.Context, rateeID, circleID string) (domain.CircleStatus, error) {
	ratings, err := s.ratings.ListByRateeAndCircle(ctx, rateeID, circleID)
	if err != nil {
		return domain.CircleStatus{}, err
	}
	return classify(circleID, ratings), nil
}

func classify(circleID string, ratings []domain.Rating) domain.CircleStatus {
	totalCount := len(ratings)
	positiveCount := 0
	for _, r := range ratings {
		if r.Value > 0 {
			positiveCount++
		}
	}

	status := domain.CircleStatus{
		CircleID:         circleID,
		HasEnoughRatings: totalCount >= domain.MinCircleRatings,
	}
	if totalCount > 0 {
		status.PositivePercentage = float64(positiveCount) / float64(totalCount) * 100
	}

	status.Status = domain.CircleStatusNeutral
	if status.HasEnoughRatings {
		if status.PositivePercentage >= domain.PositiveThresholdPct {
			status.Status = domain.CircleStatusPositive
		} else {
			status.Status = domain.CircleStatusNegative
		}
	}
	return status
}

// Summary arma la vista de reputación completa de un usuario: ranking,
// top de rasgos positivos y estado de cada uno de sus círculos. Los
// datos ausentes degradan a valores cero, nunca a error.
func (s *ReputationService) Summary(ctx context.Context, rateeID string) (domain.ReputationSummary, error) {
	scores, err := s.ComputeTraitRanking(ctx, rateeID)
	if err != nil {
		return domain.ReputationSummary{}, err
	}

	top := make([]domain.Trait, 0, 2)
	for _, score := range scores {
		if score.Average <= 0 {
			continue
		}
		top = append(top, score.Trait)
		if len(top) == 2 {
			break
		}
	}

	statuses := make(map[string]domain.CircleStatus)
	circles, err := s.circles.ListByOwner(ctx, rateeID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("list circles for summary failed", zap.Error(err), zap.String("ratee_id", rateeID))
		}
		circles = nil
	}
	for _, circle := range circles {
		status, err := s.ClassifyCircle(ctx, rateeID, circle.ID)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("classify circle failed", zap.Error(err), zap.String("circle_id", circle.ID))
			}
			continue
		}
		statuses[circle.ID] = status
	}

	return domain.ReputationSummary{
		RankedTraits:      scores,
		TopPositiveTraits: top,
		CircleStatuses:    statuses,
	}, nil
}

type cellKey struct {
	rateeID  string
	circleID string
	traitID  string
}

// AggregateCache mantiene los AggregateCells de forma incremental. Es un
// handle explícito por instancia, no estado global, y su contenido debe
// coincidir bit a bit con el replay del ledger.
type AggregateCache struct {
	mu    sync.RWMutex
	cells map[cellKey]domain.AggregateCell
}

func NewAggregateCache() *AggregateCache {
	return &AggregateCache{
		cells: make(map[cellKey]domain.AggregateCell),
	}
}

// Apply incorpora un rating aceptado. Ratings de celdas distintas
// conmutan; los de la misma celda quedan serializados por el lock.
func (c *AggregateCache) Apply(r domain.Rating) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cellKey{rateeID: r.RateeID, circleID: r.CircleID, traitID: r.TraitID}
	cell := c.cells[key]
	cell.Apply(r.Value)
	c.cells[key] = cell
}

// Cell devuelve la celda (ratee, circle, trait); una celda vacía si no
// hay ratings.
func (c *AggregateCache) Cell(rateeID, circleID, traitID string) domain.AggregateCell {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cells[cellKey{rateeID: rateeID, circleID: circleID, traitID: traitID}]
}

// TraitCells consolida las celdas de un usuario por rasgo, sumando a
// través de círculos.
func (c *AggregateCache) TraitCells(rateeID string) map[string]domain.AggregateCell {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]domain.AggregateCell)
	for key, cell := range c.cells {
		if key.rateeID != rateeID {
			continue
		}
		merged := out[key.traitID]
		merged.Sum += cell.Sum
		merged.Count += cell.Count
		merged.PositiveCount += cell.PositiveCount
		merged.NegativeCount += cell.NegativeCount
		out[key.traitID] = merged
	}
	return out
}

// Rebuild repone las celdas de un usuario desde el ledger, descartando
// lo acumulado. Tras Rebuild la caché equivale al replay.
func (c *AggregateCache) Rebuild(ctx context.Context, ratings repository.RatingRepository, rateeID string) error {
	history, err := ratings.ListByRatee(ctx, rateeID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.cells {
		if key.rateeID == rateeID {
			delete(c.cells, key)
		}
	}
	for _, r := range history {
		key := cellKey{rateeID: r.RateeID, circleID: r.CircleID, traitID: r.TraitID}
		cell := c.cells[key]
		cell.Apply(r.Value)
		c.cells[key] = cell
	}
	return nil
}
