package chest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"zoggy.app/waitlist/internal/common"
	"zoggy.app/waitlist/internal/features/users"
	"zoggy.app/waitlist/internal/metrics"
)

// lockedStore — хранилище в памяти; мьютекс играет роль блокировки строки.
type lockedStore struct {
	mu      sync.Mutex
	user    users.User
	records []OpenRecord
}

func (s *lockedStore) WithLockedUser(_ context.Context, userID int64, fn func(u *users.User) (*Credit, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID != s.user.ID {
		return common.ErrUserNotFound
	}
	snapshot := s.user
	credit, err := fn(&snapshot)
	if err != nil || credit == nil {
		return err
	}
	s.user.Cents += credit.Cents
	s.user.FirstChestOpened = true
	at := credit.At
	s.user.LastOpenAt = &at
	s.user.OpenCount++
	s.records = append(s.records, OpenRecord{
		ID: int64(len(s.records) + 1), UserID: userID,
		AmountCents: credit.Cents, IsFirstChest: credit.IsFirst, CreatedAt: credit.At,
	})
	return nil
}

type fixedDrawer struct{ first, standard int64 }

func (d fixedDrawer) Draw(isFirst bool) int64 {
	if isFirst {
		return d.first
	}
	return d.standard
}

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newService(store *lockedStore) *Service {
	s := NewService(store, fixedDrawer{first: 20, standard: 10}, metrics.New(), 24*time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func eligibleUser() users.User {
	return users.User{ID: 1, EmailVerified: true, TelegramJoinedOK: true}
}

func TestGatesInOrder(t *testing.T) {
	recent := now.Add(-time.Hour)
	cases := []struct {
		name string
		user users.User
		want error
	}{
		{"email first", users.User{ID: 1, TelegramJoinedOK: false, LastOpenAt: &recent}, common.ErrEmailNotVerified},
		{"telegram second", users.User{ID: 1, EmailVerified: true, LastOpenAt: &recent}, common.ErrTelegramRequired},
		{"cooldown third", users.User{ID: 1, EmailVerified: true, TelegramJoinedOK: true, LastOpenAt: &recent}, common.ErrCooldownActive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &lockedStore{user: tc.user}
			_, err := newService(store).Open(context.Background(), 1)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if len(store.records) != 0 || store.user.Cents != 0 {
				t.Fatal("rejected open must not credit or record")
			}
		})
	}
}

func TestCooldownErrorCarriesNextAt(t *testing.T) {
	last := now.Add(-23 * time.Hour)
	u := eligibleUser()
	u.LastOpenAt = &last

	_, err := newService(&lockedStore{user: u}).Open(context.Background(), 1)
	var cd *common.CooldownError
	if !errors.As(err, &cd) {
		t.Fatalf("err = %v, want CooldownError", err)
	}
	if !cd.NextAt.Equal(last.Add(24 * time.Hour)) {
		t.Fatalf("NextAt = %v", cd.NextAt)
	}
}

func TestOpenCreditsFirstThenStandard(t *testing.T) {
	store := &lockedStore{user: eligibleUser()}
	svc := newService(store)

	res, err := svc.Open(context.Background(), 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !res.IsFirst || res.Cents != 20 || !res.NextChestAt.Equal(now.Add(24*time.Hour)) {
		t.Fatalf("first open result = %+v", res)
	}

	// Ровно через 24 часа сундук снова доступен.
	now = now.Add(24 * time.Hour)
	defer func() { now = now.Add(-24 * time.Hour) }()

	res, err = svc.Open(context.Background(), 1)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	if res.IsFirst || res.Cents != 10 {
		t.Fatalf("second open result = %+v", res)
	}
	if store.user.Cents != 30 || store.user.OpenCount != 2 || len(store.records) != 2 {
		t.Fatalf("user after two opens = %+v, records = %d", store.user, len(store.records))
	}
	if !store.records[0].IsFirstChest || store.records[1].IsFirstChest {
		t.Fatalf("records = %+v", store.records)
	}
}

func TestConcurrentOpensCreditOnce(t *testing.T) {
	store := &lockedStore{user: eligibleUser()}
	svc := newService(store)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Open(context.Background(), 1); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ok != 1 || len(store.records) != 1 {
		t.Fatalf("successful opens = %d, records = %d, want 1/1", ok, len(store.records))
	}
}
