package feed

import (
	"time"

	"zoggy.app/waitlist/internal/config"
	"zoggy.app/waitlist/internal/features/rewards"
)

// CadenceConfig — все числа, задающие ритм ленты.
type CadenceConfig struct {
	NameCooldown time.Duration

	// Шансы тиров; остаток (1 - сумма) приходится на small.
	MegaChance   float64
	LargeChance  float64
	MediumChance float64

	// Минимальные промежутки между mega и между large.
	MegaGap  time.Duration
	LargeGap time.Duration

	BaseDelayMin time.Duration
	BaseDelayMax time.Duration

	MicroBurstMinInterval time.Duration
	MicroBurstMaxInterval time.Duration
	MicroBurstChance      float64
	MicroBurstSizeMin     int
	MicroBurstSizeMax     int
	MicroBurstGapMin      time.Duration
	MicroBurstGapMax      time.Duration

	LullMinInterval time.Duration
	LullMaxInterval time.Duration
	LullChance      float64
	LullDurationMin time.Duration
	LullDurationMax time.Duration
	LullRecheck     time.Duration

	DecaySizeMin    int
	DecaySizeMax    int
	DecayFirstDelay time.Duration
	DecayStepMin    time.Duration
	DecayStepMax    time.Duration
}

// DefaultCadence возвращает ритм по умолчанию.
func DefaultCadence() CadenceConfig {
	return CadenceConfig{
		NameCooldown: 90 * time.Minute,

		MegaChance:   0.02,
		LargeChance:  0.08,
		MediumChance: 0.30,
		MegaGap:      3 * time.Hour,
		LargeGap:     time.Hour,

		BaseDelayMin: 60 * time.Second,
		BaseDelayMax: 120 * time.Second,

		MicroBurstMinInterval: 6 * time.Minute,
		MicroBurstMaxInterval: 10 * time.Minute,
		MicroBurstChance:      0.3,
		MicroBurstSizeMin:     3,
		MicroBurstSizeMax:     5,
		MicroBurstGapMin:      2 * time.Second,
		MicroBurstGapMax:      6 * time.Second,

		LullMinInterval: 10 * time.Minute,
		LullMaxInterval: 15 * time.Minute,
		LullChance:      0.2,
		LullDurationMin: 4 * time.Minute,
		LullDurationMax: 5 * time.Minute,
		LullRecheck:     30 * time.Second,

		DecaySizeMin:    5,
		DecaySizeMax:    10,
		DecayFirstDelay: 30 * time.Second,
		DecayStepMin:    20 * time.Second,
		DecayStepMax:    60 * time.Second,
	}
}

// CadenceFromConfig переносит настраиваемые параметры из конфигурации.
// Размеры всплесков и шаги хвоста остаются значениями по умолчанию.
func CadenceFromConfig(cfg *config.Config) CadenceConfig {
	c := DefaultCadence()
	c.NameCooldown = cfg.FeedNameCooldown
	c.MegaChance = cfg.FeedMegaChance
	c.LargeChance = cfg.FeedLargeChance
	c.MediumChance = cfg.FeedMediumChance
	c.MegaGap = cfg.FeedMegaGap
	c.LargeGap = cfg.FeedLargeGap
	c.BaseDelayMin = cfg.FeedBaseDelayMin
	c.BaseDelayMax = cfg.FeedBaseDelayMax
	c.MicroBurstMinInterval = cfg.FeedMicroBurstMin
	c.MicroBurstMaxInterval = cfg.FeedMicroBurstMax
	c.MicroBurstChance = cfg.FeedMicroBurstChance
	c.LullMinInterval = cfg.FeedLullMin
	c.LullMaxInterval = cfg.FeedLullMax
	c.LullChance = cfg.FeedLullChance
	c.LullDurationMin = cfg.FeedLullDurationMin
	c.LullDurationMax = cfg.FeedLullDurationMax
	c.LullRecheck = cfg.FeedLullRecheck
	return c
}

// Tiers — таблицы сумм по тирам (центы).
type Tiers struct {
	Mega   rewards.Table
	Large  rewards.Table
	Medium rewards.Table
	Small  rewards.Table
}

// DefaultTiers: mega $10k–$100k, large $2k–$9 999, medium $100–$1 999, small $5–$50.
func DefaultTiers() Tiers {
	return Tiers{
		Mega: rewards.Table{
			rewards.Range(1_000_000, 2_499_999, 0.6),
			rewards.Range(2_500_000, 4_999_999, 0.3),
			rewards.Range(5_000_000, 9_999_999, 0.1),
		},
		Large: rewards.Table{
			rewards.Range(200_000, 499_999, 0.7),
			rewards.Range(500_000, 799_999, 0.2),
			rewards.Range(800_000, 999_900, 0.1),
		},
		Medium: rewards.Table{
			rewards.Range(10_000, 49_999, 0.6),
			rewards.Range(50_000, 99_999, 0.25),
			rewards.Range(100_000, 199_900, 0.15),
		},
		Small: rewards.Table{
			rewards.Range(500, 5_000, 1),
		},
	}
}

// Engine принимает решения о следующем событии ленты.
// Сам по себе не хранит состояние ритма: оно передаётся в Decide.
type Engine struct {
	cfg       CadenceConfig
	tiers     Tiers
	rnd       rewards.Rand
	names     []string
	avatars   []string
	countries []Country
}

// NewEngine создаёт движок с пулами имён, аватаров и стран по умолчанию.
func NewEngine(cfg CadenceConfig, tiers Tiers, rnd rewards.Rand) *Engine {
	return &Engine{
		cfg:       cfg,
		tiers:     tiers,
		rnd:       rnd,
		names:     DefaultNames(),
		avatars:   DefaultAvatars(),
		countries: DefaultCountries(),
	}
}

// WithNames подменяет пул имён (используется в тестах кулдауна).
func (e *Engine) WithNames(names []string) *Engine {
	e.names = names
	return e
}

// Decide выполняет один шаг ритма. Правила проверяются по порядку, срабатывает первое:
//
//  1. идёт затишье: ничего, проверить через LullRecheck;
//  2. есть микро-всплеск: выдать голову, если наступила, иначе ждать;
//  3. есть хвост после крупного выигрыша: так же;
//  4. возможно запланировать микро-всплеск, затем возможно войти в затишье;
//  5. обычный выигрыш по тирам.
func (e *Engine) Decide(s *State, now time.Time) Decision {
	if s.InLull && !now.Before(s.LullEndsAt) {
		s.InLull = false
	}
	if s.InLull {
		return Decision{Kind: KindLull, Delay: e.cfg.LullRecheck}
	}

	for _, q := range []*DelayedQueue{s.MicroBursts, s.SmallWins} {
		win, wait, ok := q.Next(now)
		if !ok {
			continue
		}
		if wait > 0 {
			return Decision{Kind: KindWaiting, Delay: wait}
		}
		return Decision{Kind: q.Kind(), Win: &win}
	}

	e.maybeScheduleMicroBurst(s, now)
	if e.maybeEnterLull(s, now) {
		return Decision{Kind: KindLull, Delay: e.cfg.LullRecheck}
	}

	return e.regular(s, now)
}

func (e *Engine) regular(s *State, now time.Time) Decision {
	x := e.rnd.Float64()
	megaEdge := e.cfg.MegaChance
	largeEdge := megaEdge + e.cfg.LargeChance
	mediumEdge := largeEdge + e.cfg.MediumChance

	var w Win
	switch {
	case x < megaEdge && gateOpen(s.LastBigWinAt, now, e.cfg.MegaGap):
		w = e.newWin(s, now, KindMega, e.tiers.Mega)
		s.LastBigWinAt = now
		e.scheduleDecay(s, now)
	case x < largeEdge && gateOpen(s.LastMediumWinAt, now, e.cfg.LargeGap):
		w = e.newWin(s, now, KindLarge, e.tiers.Large)
		s.LastMediumWinAt = now
		e.scheduleDecay(s, now)
	case x < mediumEdge:
		w = e.newWin(s, now, KindMedium, e.tiers.Medium)
	default:
		w = e.newWin(s, now, KindSmall, e.tiers.Small)
	}
	return Decision{Kind: w.Kind, Win: &w, Delay: e.between(e.cfg.BaseDelayMin, e.cfg.BaseDelayMax)}
}

// gateOpen: тир разрешён, если такого выигрыша ещё не было или прошло не меньше gap.
func gateOpen(last, now time.Time, gap time.Duration) bool {
	return last.IsZero() || now.Sub(last) >= gap
}

func (e *Engine) maybeScheduleMicroBurst(s *State, now time.Time) bool {
	elapsed := now.Sub(s.LastMicroBurstAt)
	if elapsed < e.cfg.MicroBurstMinInterval {
		return false
	}
	if elapsed <= e.cfg.MicroBurstMaxInterval && e.rnd.Float64() >= e.cfg.MicroBurstChance {
		return false
	}

	n := e.intBetween(e.cfg.MicroBurstSizeMin, e.cfg.MicroBurstSizeMax)
	at := now
	for i := 0; i < n; i++ {
		if i > 0 {
			at = at.Add(e.between(e.cfg.MicroBurstGapMin, e.cfg.MicroBurstGapMax))
		}
		s.MicroBursts.Push(at, e.newWin(s, now, KindMicroBurst, e.tiers.Small))
	}
	s.LastMicroBurstAt = now
	return true
}

func (e *Engine) maybeEnterLull(s *State, now time.Time) bool {
	elapsed := now.Sub(s.LastLullAt)
	if elapsed <= e.cfg.LullMaxInterval &&
		(elapsed <= e.cfg.LullMinInterval || e.rnd.Float64() >= e.cfg.LullChance) {
		return false
	}
	s.InLull = true
	s.LastLullAt = now
	s.LullEndsAt = now.Add(e.between(e.cfg.LullDurationMin, e.cfg.LullDurationMax))
	return true
}

// scheduleDecay ставит в очередь 5–10 мелких выигрышей: первый через 30 с,
// каждый следующий позже предыдущего на 20–60 с.
func (e *Engine) scheduleDecay(s *State, now time.Time) {
	n := e.intBetween(e.cfg.DecaySizeMin, e.cfg.DecaySizeMax)
	at := now.Add(e.cfg.DecayFirstDelay)
	for i := 0; i < n; i++ {
		if i > 0 {
			at = at.Add(e.between(e.cfg.DecayStepMin, e.cfg.DecayStepMax))
		}
		s.SmallWins.Push(at, e.newWin(s, now, KindSmallBurst, e.tiers.Small))
	}
}

func (e *Engine) newWin(s *State, now time.Time, kind Kind, table rewards.Table) Win {
	return Win{
		Kind:        kind,
		AmountCents: table.Sample(e.rnd),
		Username:    e.pickName(s, now),
		Avatar:      e.avatars[e.rnd.Intn(len(e.avatars))],
		Country:     e.countries[e.rnd.Intn(len(e.countries))],
	}
}

// pickName выбирает имя, не использованное за последние NameCooldown.
// Просроченные отметки чистятся здесь же. Если свободных имён нет,
// берётся любое имя без отметки.
func (e *Engine) pickName(s *State, now time.Time) string {
	for name, usedAt := range s.UsedNames {
		if now.Sub(usedAt) >= e.cfg.NameCooldown {
			delete(s.UsedNames, name)
		}
	}

	available := make([]string, 0, len(e.names))
	for _, name := range e.names {
		if _, used := s.UsedNames[name]; !used {
			available = append(available, name)
		}
	}
	if len(available) == 0 {
		return e.names[e.rnd.Intn(len(e.names))]
	}

	name := available[e.rnd.Intn(len(available))]
	s.UsedNames[name] = now
	return name
}

// between — равномерная длительность в [min, max].
func (e *Engine) between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(e.rnd.Float64()*float64(max-min))
}

// intBetween — равномерное целое в [min, max].
func (e *Engine) intBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + e.rnd.Intn(max-min+1)
}
