package users

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"zoggy.app/waitlist/internal/auth"
	"zoggy.app/waitlist/internal/common"
)

// memStore — хранилище пользователей в памяти.
type memStore struct {
	users     []*User
	now       func() time.Time
	collide   int // сколько первых Create вернут errCodeTaken
	incErrors error
}

func (m *memStore) Create(_ context.Context, u *User) error {
	if m.collide > 0 {
		m.collide--
		return errCodeTaken
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return common.ErrEmailExists
		}
	}
	u.ID = int64(len(m.users) + 1)
	u.CreatedAt = m.now()
	u.AuthVersion = 1
	cp := *u
	m.users = append(m.users, &cp)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*User, error) {
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrUserNotFound
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrUserNotFound
}

func (m *memStore) ReferralCodeExists(_ context.Context, code string) (bool, error) {
	for _, u := range m.users {
		if u.ReferralCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) IncrementReferralCount(_ context.Context, code string) error {
	if m.incErrors != nil {
		return m.incErrors
	}
	for _, u := range m.users {
		if u.ReferralCode == code {
			u.ReferralCount++
		}
	}
	return nil
}

func (m *memStore) CountSignupsFromIP(_ context.Context, ip string, since time.Time) (int, error) {
	n := 0
	for _, u := range m.users {
		if u.SignupIP == ip && !u.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) MarkVerified(_ context.Context, id int64) error {
	for _, u := range m.users {
		if u.ID == id {
			u.EmailVerified = true
		}
	}
	return nil
}

func (m *memStore) CountAhead(_ context.Context, target *User) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.ReferralCount > target.ReferralCount ||
			(u.ReferralCount == target.ReferralCount && u.CreatedAt.Before(target.CreatedAt)) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountAll(context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

func (m *memStore) TopReferrers(_ context.Context, limit int) ([]*User, error) {
	var verified []*User
	for _, u := range m.users {
		if u.EmailVerified {
			verified = append(verified, u)
		}
	}
	sort.SliceStable(verified, func(i, j int) bool {
		if verified[i].ReferralCount != verified[j].ReferralCount {
			return verified[i].ReferralCount > verified[j].ReferralCount
		}
		return verified[i].CreatedAt.Before(verified[j].CreatedAt)
	})
	if len(verified) > limit {
		verified = verified[:limit]
	}
	return verified, nil
}

type capturedMail struct {
	email, link string
}

type fakeMailer struct{ sent []capturedMail }

func (f *fakeMailer) SendVerification(_ context.Context, email, link string) error {
	f.sent = append(f.sent, capturedMail{email, link})
	return nil
}

type fixture struct {
	svc    *Service
	store  *memStore
	mailer *fakeMailer
	tokens *auth.Manager
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{clock: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	f.store = &memStore{now: func() time.Time { return f.clock }}
	f.mailer = &fakeMailer{}
	f.tokens = auth.NewManager("0123456789abcdef", "test")
	f.svc = NewService(f.store, f.tokens, f.mailer, Options{
		PublicBaseURL:   "https://zoggy.test",
		SessionTTL:      720 * time.Hour,
		VerificationTTL: 24 * time.Hour,
		MaxSignupsPerIP: 2,
		ChestCooldown:   24 * time.Hour,
	})
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) signup(t *testing.T, email, ip string) *User {
	t.Helper()
	u, err := f.svc.Signup(context.Background(), email, "", Meta{IP: ip})
	if err != nil {
		t.Fatalf("Signup(%s): %v", email, err)
	}
	return u
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Signup(ctx, "  ", "", Meta{}); !errors.Is(err, common.ErrEmailRequired) {
		t.Fatalf("empty email: err = %v", err)
	}
	if _, err := f.svc.Signup(ctx, "not-an-email", "", Meta{}); !errors.Is(err, common.ErrEmailInvalid) {
		t.Fatalf("invalid email: err = %v", err)
	}

	f.signup(t, "Marta@Example.com", "1.1.1.1")
	if _, err := f.svc.Signup(ctx, "marta@example.com", "", Meta{IP: "2.2.2.2"}); !errors.Is(err, common.ErrEmailExists) {
		t.Fatalf("duplicate email: err = %v", err)
	}
}

func TestSignupSendsVerificationLink(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "new@example.com", "1.1.1.1")

	if len(f.mailer.sent) != 1 {
		t.Fatalf("mails sent = %d, want 1", len(f.mailer.sent))
	}
	mail := f.mailer.sent[0]
	if mail.email != "new@example.com" || !strings.HasPrefix(mail.link, "https://zoggy.test/verify-email?token=") {
		t.Fatalf("unexpected mail: %+v", mail)
	}
	if !strings.HasPrefix(u.ClaimCode, "ZOGGY-") || len(u.ReferralCode) != 6 {
		t.Fatalf("codes not generated: %+v", u)
	}
}

func TestSignupThrottlesByIP(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "a@example.com", "9.9.9.9")
	f.signup(t, "b@example.com", "9.9.9.9")

	_, err := f.svc.Signup(context.Background(), "c@example.com", "", Meta{IP: "9.9.9.9"})
	if !errors.Is(err, common.ErrTooManySignups) {
		t.Fatalf("third signup: err = %v, want ErrTooManySignups", err)
	}

	// Через сутки лимит снова свободен.
	f.clock = f.clock.Add(25 * time.Hour)
	f.signup(t, "c@example.com", "9.9.9.9")
}

func TestSignupCountsReferral(t *testing.T) {
	f := newFixture(t)
	inviter := f.signup(t, "inviter@example.com", "1.1.1.1")

	invited, err := f.svc.Signup(context.Background(), "friend@example.com", inviter.ReferralCode, Meta{IP: "2.2.2.2"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if invited.ReferredBy == nil || *invited.ReferredBy != inviter.ReferralCode {
		t.Fatalf("ReferredBy = %v", invited.ReferredBy)
	}
	got, _ := f.store.GetByID(context.Background(), inviter.ID)
	if got.ReferralCount != 1 {
		t.Fatalf("inviter referral_count = %d, want 1", got.ReferralCount)
	}
}

func TestSignupDropsUnknownReferral(t *testing.T) {
	f := newFixture(t)
	u, err := f.svc.Signup(context.Background(), "x@example.com", "nosuch", Meta{IP: "1.1.1.1"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if u.ReferredBy != nil {
		t.Fatalf("unknown referral kept: %v", *u.ReferredBy)
	}
}

func TestSignupRetriesCodeCollision(t *testing.T) {
	f := newFixture(t)
	f.store.collide = 2
	f.signup(t, "lucky@example.com", "1.1.1.1")
	if len(f.store.users) != 1 {
		t.Fatalf("users = %d, want 1", len(f.store.users))
	}
}

func TestSigninRequiresVerifiedEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.signup(t, "v@example.com", "1.1.1.1")

	if _, err := f.svc.Signin(ctx, "missing@example.com"); !errors.Is(err, common.ErrUserNotFound) {
		t.Fatalf("unknown email: err = %v", err)
	}
	if _, err := f.svc.Signin(ctx, "v@example.com"); !errors.Is(err, common.ErrEmailNotVerified) {
		t.Fatalf("unverified: err = %v", err)
	}

	link := f.mailer.sent[0].link
	token := link[strings.Index(link, "token=")+len("token="):]
	already, err := f.svc.VerifyEmail(ctx, token)
	if err != nil || already {
		t.Fatalf("VerifyEmail: already=%v err=%v", already, err)
	}
	if already, _ := f.svc.VerifyEmail(ctx, token); !already {
		t.Fatal("second verification should report already verified")
	}

	session, err := f.svc.Signin(ctx, "V@example.com")
	if err != nil {
		t.Fatalf("Signin: %v", err)
	}
	got, err := f.svc.Authenticate(ctx, session.Token)
	if err != nil || got.ID != u.ID {
		t.Fatalf("Authenticate: user=%v err=%v", got, err)
	}
}

func TestAuthenticateRejectsStaleAuthVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.signup(t, "s@example.com", "1.1.1.1")

	token, _ := f.tokens.IssueSession(u.ID, u.AuthVersion, time.Hour)
	f.store.users[0].AuthVersion++

	if _, err := f.svc.Authenticate(ctx, token); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyEmailRejectsSessionToken(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "t@example.com", "1.1.1.1")
	token, _ := f.tokens.IssueSession(u.ID, u.AuthVersion, time.Hour)

	if _, err := f.svc.VerifyEmail(context.Background(), token); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestResendVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.signup(t, "r@example.com", "1.1.1.1")

	if err := f.svc.ResendVerification(ctx, "r@example.com"); err != nil {
		t.Fatalf("ResendVerification: %v", err)
	}
	if len(f.mailer.sent) != 2 {
		t.Fatalf("mails = %d, want 2", len(f.mailer.sent))
	}

	_ = f.store.MarkVerified(ctx, u.ID)
	if err := f.svc.ResendVerification(ctx, "r@example.com"); !errors.Is(err, common.ErrEmailAlreadyVerified) {
		t.Fatalf("err = %v, want ErrEmailAlreadyVerified", err)
	}
}

func TestDashboardPositionAndCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.signup(t, "first@example.com", "1.1.1.1")
	f.clock = f.clock.Add(time.Minute)
	second := f.signup(t, "second@example.com", "2.2.2.2")

	d, err := f.svc.Dashboard(ctx, second)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Position != 2 || d.Total != 2 {
		t.Fatalf("position=%d total=%d, want 2/2", d.Position, d.Total)
	}

	// Рефералы поднимают в очереди.
	second.ReferralCount = 1
	f.store.users[1].ReferralCount = 1
	if d, _ := f.svc.Dashboard(ctx, second); d.Position != 1 {
		t.Fatalf("position with referral = %d, want 1", d.Position)
	}

	opened := f.clock.Add(-20 * time.Hour)
	first.LastOpenAt = &opened
	if d, _ := f.svc.Dashboard(ctx, first); d.CooldownSeconds != int64(4*time.Hour/time.Second) {
		t.Fatalf("cooldownSeconds = %d, want 14400", d.CooldownSeconds)
	}
}

func TestLeaderboardMasksEmails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.signup(t, "leader@example.com", "1.1.1.1")
	f.signup(t, "hidden@example.com", "2.2.2.2")
	_ = f.store.MarkVerified(ctx, u.ID)

	entries, err := f.svc.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 1 || entries[0].User != "le***@example.com" || entries[0].Rank != 1 {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestReferralLink(t *testing.T) {
	f := newFixture(t)
	u := &User{ReferralCode: "hT7d9a"}
	if got := f.svc.ReferralLink(u); got != "https://zoggy.test?ref=hT7d9a" {
		t.Fatalf("ReferralLink = %q", got)
	}
}
