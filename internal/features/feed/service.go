package feed

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Reader — источник последних записей ленты.
type Reader interface {
	Latest(ctx context.Context, n int) ([]Event, error)
}

// Service — чтение ленты для публичного API.
type Service struct {
	repo         Reader
	cache        *Cache
	defaultLimit int
	maxLimit     int
}

// NewService создаёт сервис. cache может быть nil (Redis не настроен).
func NewService(repo Reader, cache *Cache, defaultLimit, maxLimit int) *Service {
	return &Service{repo: repo, cache: cache, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// Limit приводит запрошенное количество к допустимому: <= 0 даёт значение по умолчанию,
// больше максимума даёт максимум.
func (s *Service) Limit(n int) int {
	if n <= 0 {
		return s.defaultLimit
	}
	if n > s.maxLimit {
		return s.maxLimit
	}
	return n
}

// Latest возвращает n последних выигрышей, новые первыми.
// В кэше всегда лежит maxLimit записей, поэтому любой запрос обслуживается одним ключом.
func (s *Service) Latest(ctx context.Context, n int) ([]Event, error) {
	n = s.Limit(n)

	if s.cache != nil {
		events, ok, err := s.cache.Get(ctx)
		if err != nil {
			log.WithError(err).Debug("[FEED] Ошибка чтения кэша, идём в базу")
		}
		if ok {
			return head(events, n), nil
		}
	}

	events, err := s.repo.Latest(ctx, s.maxLimit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, events); err != nil {
			log.WithError(err).Debug("[FEED] Не удалось записать кэш")
		}
	}
	return head(events, n), nil
}

func head(events []Event, n int) []Event {
	if len(events) > n {
		return events[:n]
	}
	return events
}
