package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"zoggy.app/waitlist/internal/common"
)

var t0 = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

type memStore struct {
	mu       sync.Mutex
	nextID   int64
	nonces   map[string]*Nonce
	verified map[int64]TgUser // user_id -> tg
	missing  map[int64]bool   // пользователи, которых "нет" в users
	now      func() time.Time
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		nonces:   map[string]*Nonce{},
		verified: map[int64]TgUser{},
		missing:  map[int64]bool{},
		now:      now,
	}
}

func (m *memStore) Create(_ context.Context, userID int64, nonce string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.nonces[nonce] = &Nonce{ID: m.nextID, Nonce: nonce, Status: StatusPending, UserID: userID, CreatedAt: m.now()}
	return nil
}

func (m *memStore) byID(id int64) *Nonce {
	for _, n := range m.nonces {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (m *memStore) FindByNonce(_ context.Context, nonce string) (*Nonce, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nonces[nonce]
	if !ok {
		return nil, common.ErrNonceNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *memStore) LatestOpenByTgUser(_ context.Context, tgUserID int64) (*Nonce, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *Nonce
	for _, n := range m.nonces {
		if n.TgUserID == nil || *n.TgUserID != tgUserID {
			continue
		}
		if n.Status != StatusPending && n.Status != StatusIdentified {
			continue
		}
		if best == nil || n.CreatedAt.After(best.CreatedAt) {
			best = n
		}
	}
	if best == nil {
		return nil, common.ErrNonceNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *memStore) Bind(_ context.Context, id int64, tg TgUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.byID(id)
	tgID, name := tg.ID, tg.Username
	n.TgUserID, n.TgUsername, n.Status = &tgID, &name, StatusIdentified
	return nil
}

func (m *memStore) SetStatus(_ context.Context, id int64, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID(id).Status = status
	return nil
}

func (m *memStore) Verify(_ context.Context, n *Nonce, tg TgUser, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.missing[n.UserID] {
		return common.ErrUserNotFound
	}
	stored := m.byID(n.ID)
	stored.Status = StatusVerified
	stored.VerifiedAt = &at
	m.verified[n.UserID] = tg
	return nil
}

func (m *memStore) ExpireBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, row := range m.nonces {
		if (row.Status == StatusPending || row.Status == StatusIdentified) && row.CreatedAt.Before(cutoff) {
			row.Status = StatusExpired
			n++
		}
	}
	return n, nil
}

type fakeMembers struct {
	member bool
	err    error
}

func (f fakeMembers) IsMember(context.Context, int64) (bool, error) { return f.member, f.err }

type fixture struct {
	now   time.Time
	store *memStore
	svc   *Service
}

func newFixture() *fixture {
	f := &fixture{now: t0}
	clock := func() time.Time { return f.now }
	f.store = newMemStore(clock)
	f.svc = NewService(f.store, "zoggy_bot", true, 15*time.Minute)
	f.svc.now = clock
	return f
}

func (f *fixture) deeplink(t *testing.T, userID int64) string {
	t.Helper()
	link, err := f.svc.CreateDeeplink(context.Background(), userID)
	if err != nil {
		t.Fatalf("CreateDeeplink: %v", err)
	}
	_, payload, ok := strings.Cut(link, "?start=")
	if !ok {
		t.Fatalf("link without start payload: %s", link)
	}
	return payload
}

func TestCreateDeeplinkFormat(t *testing.T) {
	f := newFixture()
	link, err := f.svc.CreateDeeplink(context.Background(), 7)
	if err != nil {
		t.Fatalf("CreateDeeplink: %v", err)
	}
	const prefix = "https://t.me/zoggy_bot?start=auth_"
	if !strings.HasPrefix(link, prefix) {
		t.Fatalf("link = %q", link)
	}
	nonce := strings.TrimPrefix(link, prefix)
	if len(nonce) != 32 || strings.Contains(nonce, "-") {
		t.Fatalf("nonce should be a dashless uuid, got %q", nonce)
	}
	if n := f.store.nonces[nonce]; n == nil || n.Status != StatusPending || n.UserID != 7 {
		t.Fatalf("stored nonce = %+v", n)
	}
}

func TestCreateDeeplinkDisabled(t *testing.T) {
	svc := NewService(newMemStore(time.Now), "", true, time.Minute)
	if _, err := svc.CreateDeeplink(context.Background(), 1); !errors.Is(err, common.ErrTelegramDisabled) {
		t.Fatalf("err = %v, want ErrTelegramDisabled", err)
	}
	status, code := common.ErrorStatus(common.ErrTelegramDisabled)
	if status != 503 || code != "telegram_not_configured" {
		t.Fatalf("ErrorStatus = %d %s", status, code)
	}
}

func TestStartWithoutPayload(t *testing.T) {
	f := newFixture()
	out, err := f.svc.HandleStart(context.Background(), "", TgUser{ID: 1}, fakeMembers{})
	if err != nil || out != OutcomeNoPayload {
		t.Fatalf("out = %v, err = %v", out, err)
	}
}

func TestStartUnknownNonce(t *testing.T) {
	f := newFixture()
	out, _ := f.svc.HandleStart(context.Background(), "auth_deadbeef", TgUser{ID: 1}, fakeMembers{})
	if out != OutcomeExpired {
		t.Fatalf("out = %v, want expired", out)
	}
}

func TestStartMemberVerifiesImmediately(t *testing.T) {
	f := newFixture()
	payload := f.deeplink(t, 42)

	out, err := f.svc.HandleStart(context.Background(), payload, TgUser{ID: 900, Username: "alice"}, fakeMembers{member: true})
	if err != nil || out != OutcomeVerified {
		t.Fatalf("out = %v, err = %v", out, err)
	}
	if tg, ok := f.store.verified[42]; !ok || tg.ID != 900 {
		t.Fatalf("user 42 not linked: %+v", f.store.verified)
	}
	n := f.store.nonces[strings.TrimPrefix(payload, "auth_")]
	if n.Status != StatusVerified || n.VerifiedAt == nil {
		t.Fatalf("nonce = %+v", n)
	}
}

func TestStartNonMemberThenJoinRequest(t *testing.T) {
	f := newFixture()
	payload := f.deeplink(t, 42)
	tg := TgUser{ID: 900}

	out, _ := f.svc.HandleStart(context.Background(), payload, tg, fakeMembers{member: false})
	if out != OutcomeAskToJoin {
		t.Fatalf("start out = %v, want ask-to-join", out)
	}
	if _, ok := f.store.verified[42]; ok {
		t.Fatal("user linked before joining")
	}

	f.now = f.now.Add(5 * time.Minute)
	out, err := f.svc.HandleJoinRequest(context.Background(), tg)
	if err != nil || out != OutcomeVerified {
		t.Fatalf("join out = %v, err = %v", out, err)
	}
	if _, ok := f.store.verified[42]; !ok {
		t.Fatal("user not linked after join request")
	}
}

func TestStartMembershipCheckErrorAsksToJoin(t *testing.T) {
	f := newFixture()
	payload := f.deeplink(t, 1)
	out, err := f.svc.HandleStart(context.Background(), payload, TgUser{ID: 2}, fakeMembers{err: errors.New("bot is not admin")})
	if err != nil || out != OutcomeAskToJoin {
		t.Fatalf("out = %v, err = %v", out, err)
	}
}

func TestStartExpiredNonce(t *testing.T) {
	f := newFixture()
	payload := f.deeplink(t, 1)
	f.now = f.now.Add(16 * time.Minute)

	out, _ := f.svc.HandleStart(context.Background(), payload, TgUser{ID: 2}, fakeMembers{member: true})
	if out != OutcomeExpired {
		t.Fatalf("out = %v, want expired", out)
	}
	if n := f.store.nonces[strings.TrimPrefix(payload, "auth_")]; n.Status != StatusExpired {
		t.Fatalf("status = %s, want expired", n.Status)
	}
}

func TestStartReusedNonce(t *testing.T) {
	f := newFixture()
	payload := f.deeplink(t, 1)
	if out, _ := f.svc.HandleStart(context.Background(), payload, TgUser{ID: 2}, fakeMembers{member: true}); out != OutcomeVerified {
		t.Fatalf("first start = %v", out)
	}
	if out, _ := f.svc.HandleStart(context.Background(), payload, TgUser{ID: 3}, fakeMembers{member: true}); out != OutcomeExpired {
		t.Fatalf("second start = %v, want expired", out)
	}
}

func TestJoinRequestWithoutNonceGreets(t *testing.T) {
	f := newFixture()
	out, err := f.svc.HandleJoinRequest(context.Background(), TgUser{ID: 555})
	if err != nil || out != OutcomeGreeting {
		t.Fatalf("out = %v, err = %v", out, err)
	}
}

func TestJoinRequestExpired(t *testing.T) {
	f := newFixture()
	payload := f.deeplink(t, 1)
	tg := TgUser{ID: 2}
	f.svc.HandleStart(context.Background(), payload, tg, fakeMembers{})

	f.now = f.now.Add(20 * time.Minute)
	out, _ := f.svc.HandleJoinRequest(context.Background(), tg)
	if out != OutcomeExpired {
		t.Fatalf("out = %v, want expired", out)
	}
}

func TestVerifyMissingUser(t *testing.T) {
	f := newFixture()
	payload := f.deeplink(t, 77)
	f.store.missing[77] = true
	out, err := f.svc.HandleStart(context.Background(), payload, TgUser{ID: 2}, fakeMembers{member: true})
	if err != nil || out != OutcomeSessionError {
		t.Fatalf("out = %v, err = %v", out, err)
	}
}

func TestExpireStale(t *testing.T) {
	f := newFixture()
	f.deeplink(t, 1)
	f.now = f.now.Add(10 * time.Minute)
	f.deeplink(t, 2)
	f.now = f.now.Add(6 * time.Minute)

	n, err := f.svc.ExpireStale(context.Background())
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired %d, want 1", n)
	}
}

func TestReplyTexts(t *testing.T) {
	if ReplyText(OutcomeIgnored) != "" {
		t.Fatal("ignored outcome must not reply")
	}
	if ReplyText(OutcomeVerified) != "🎉 Approved! Return to the site to open your chest!" {
		t.Fatalf("verified text = %q", ReplyText(OutcomeVerified))
	}
	for _, s := range []string{"creator", "administrator", "member", "restricted"} {
		if !IsMemberStatus(s) {
			t.Errorf("%s should count as member", s)
		}
	}
	for _, s := range []string{"left", "kicked", ""} {
		if IsMemberStatus(s) {
			t.Errorf("%s should not count as member", s)
		}
	}
}
