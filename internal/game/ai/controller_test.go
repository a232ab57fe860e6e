package ai_test

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/duelpanto/internal/game/ai"
	"github.com/cory-johannsen/duelpanto/internal/game/combat"
	"github.com/cory-johannsen/duelpanto/internal/game/dice"
	"github.com/cory-johannsen/duelpanto/internal/game/entity"
	"github.com/cory-johannsen/duelpanto/internal/game/geom"
	"github.com/cory-johannsen/duelpanto/internal/game/npc"
	"github.com/cory-johannsen/duelpanto/internal/game/spatial"
)

// sight reports the opponent as struck unless blocked is set.
type sight struct {
	opponent entity.ID
	blocked  bool
	casts    int
}

func (s *sight) Raycast(origin, dir geom.Vec3, maxDist float64, _ spatial.Mask) (spatial.Hit, bool) {
	s.casts++
	if s.blocked {
		return spatial.Hit{Layer: spatial.LayerWalls, Point: origin.Add(dir.Scale(0.5 / dir.Len())), Distance: 0.5}, true
	}
	return spatial.Hit{Entity: s.opponent, Layer: spatial.LayerCombatants, Distance: maxDist}, true
}

type nav struct {
	point    geom.Vec3
	ok       bool
	searches []geom.Vec3
}

func (n *nav) FindWalkablePoint(near geom.Vec3, _ float64) (geom.Vec3, bool) {
	n.searches = append(n.searches, near)
	return n.point, n.ok
}

func (n *nav) MoveTowards(_ entity.ID, target geom.Vec3, _ float64) geom.Vec3 { return target }

type fixture struct {
	self, opponent *combat.Combatant
	sight          *sight
	nav            *nav
	ctrl           *ai.Controller
}

func newFixture(t require.TestingT, tier npc.Tier) *fixture {
	self, err := combat.NewCombatant(combat.KindAdversary, "Enemy", tier.MaxHealth)
	require.NoError(t, err)
	opp, err := combat.NewCombatant(combat.KindPlayer, "Player", 20)
	require.NoError(t, err)
	self.Spawn(geom.V(0, 0, 0), 0)
	opp.Spawn(geom.V(0, 0, 10), 180)

	s := &sight{opponent: opp.ID}
	n := &nav{}
	ctrl := ai.NewController(self, tier, ai.Deps{
		Sight:  s,
		Nav:    n,
		Dice:   dice.NewLoggedRoller(dice.NewSeededSource(7), zap.NewNop()),
		Logger: zap.NewNop(),
	})
	return &fixture{self: self, opponent: opp, sight: s, nav: n, ctrl: ctrl}
}

func sentinel() npc.Tier {
	t := npc.DefaultTier()
	t.AttackAtStart = false
	t.Inaccuracy = 0
	t.TimeBeforeSearch = time.Second
	return t
}

func TestReset_InitialContact(t *testing.T) {
	tier := sentinel()
	tier.AttackAtStart = true
	f := newFixture(t, tier)
	f.opponent.Position = geom.V(3, 0, -4)

	f.ctrl.Reset(f.opponent)

	b := f.ctrl.Belief()
	assert.True(t, b.HasTarget)
	assert.Equal(t, geom.V(3, 0, -4), b.LastKnownPosition)
	assert.Equal(t, time.Duration(0), b.SearchTimer)
}

func TestReset_WithoutInitialContact(t *testing.T) {
	f := newFixture(t, sentinel())
	f.ctrl.Reset(f.opponent)

	b := f.ctrl.Belief()
	assert.False(t, b.HasTarget)
	assert.Equal(t, f.self.Position, b.LastKnownPosition)
	assert.Equal(t, npc.ModeSentinel, b.Mode)
}

func TestTick_AcquiresInsideFieldOfView(t *testing.T) {
	f := newFixture(t, sentinel())
	f.ctrl.Reset(f.opponent)

	d := f.ctrl.Tick(100*time.Millisecond, f.opponent)

	assert.True(t, d.HasTarget)
	assert.Equal(t, f.opponent.Position, d.MoveTarget)
	assert.Equal(t, 1, f.sight.casts)
	assert.Equal(t, time.Duration(0), f.ctrl.Belief().SearchTimer)
}

func TestTick_WallBlocksSight(t *testing.T) {
	f := newFixture(t, sentinel())
	f.ctrl.Reset(f.opponent)
	f.sight.blocked = true

	d := f.ctrl.Tick(100*time.Millisecond, f.opponent)

	assert.False(t, d.HasTarget)
	assert.Equal(t, f.self.Position, d.MoveTarget)
	assert.Equal(t, 100*time.Millisecond, f.ctrl.Belief().SearchTimer)
}

func TestTick_OutsideFieldOfViewLosesContactWithoutCasting(t *testing.T) {
	tier := sentinel()
	tier.AttackAtStart = true
	f := newFixture(t, tier)
	f.ctrl.Reset(f.opponent)
	f.opponent.Position = geom.V(0, 0, -10)

	d := f.ctrl.Tick(100*time.Millisecond, f.opponent)

	assert.False(t, d.HasTarget)
	assert.Zero(t, f.sight.casts)
	// Contact was lost this tick, so the last sighting still stands.
	assert.Equal(t, geom.V(0, 0, 10), d.MoveTarget)
}

func TestTick_ShippedReacquireTiersLoseContactBehind(t *testing.T) {
	tiers, err := npc.LoadTiersFromFile(filepath.Join("..", "..", "..", "content", "tiers.yaml"))
	require.NoError(t, err)

	checked := 0
	for _, tier := range tiers {
		if tier.ReacquireDistance <= 0 || tier.Mode() != npc.ModeSentinel {
			continue
		}
		t.Run(tier.ID, func(t *testing.T) {
			f := newFixture(t, tier)
			f.ctrl.Reset(f.opponent)
			f.opponent.Position = geom.V(0, 0, -2)

			d := f.ctrl.Tick(100*time.Millisecond, f.opponent)

			assert.False(t, d.HasTarget, "opponent behind a %g degree field of view", tier.FieldOfView)
			assert.Zero(t, f.sight.casts)
		})
		checked++
	}
	assert.NotZero(t, checked, "content ships at least one sentinel tier with a reacquire distance")
}

func TestTick_ArrivalAtLastSightingSearchesEarly(t *testing.T) {
	tier := sentinel()
	tier.ReacquireDistance = 1
	tier.TimeBeforeSearch = 10 * time.Second
	f := newFixture(t, tier)
	f.ctrl.Reset(f.opponent)
	f.nav.ok = true
	f.nav.point = geom.V(4, 0, 1)

	d := f.ctrl.Tick(100*time.Millisecond, f.opponent)
	require.True(t, d.HasTarget)
	require.Equal(t, geom.V(0, 0, 10), d.MoveTarget)

	f.sight.blocked = true
	f.self.Position = geom.V(0, 0, 9.5)
	d = f.ctrl.Tick(100*time.Millisecond, f.opponent)

	assert.False(t, d.HasTarget)
	require.Len(t, f.nav.searches, 1)
	assert.Equal(t, geom.V(4, 0, 1), d.MoveTarget)
	assert.Equal(t, time.Duration(0), f.ctrl.Belief().SearchTimer)

	// A committed search point is not a sighting, so standing on it waits
	// for the timer.
	f.self.Position = f.nav.point
	f.ctrl.Tick(100*time.Millisecond, f.opponent)
	assert.Len(t, f.nav.searches, 1)
	assert.Equal(t, 100*time.Millisecond, f.ctrl.Belief().SearchTimer)
}

func TestTick_ReacquireDistanceIgnoresSpawnPosition(t *testing.T) {
	tier := sentinel()
	tier.ReacquireDistance = 5
	f := newFixture(t, tier)
	f.ctrl.Reset(f.opponent)
	f.sight.blocked = true

	for i := 0; i < 3; i++ {
		f.ctrl.Tick(100*time.Millisecond, f.opponent)
	}

	assert.Empty(t, f.nav.searches)
	assert.Equal(t, 300*time.Millisecond, f.ctrl.Belief().SearchTimer)
}

func TestTick_AimJitterStaysInsideTurnRate(t *testing.T) {
	tier := sentinel()
	tier.TurnRate = 3
	tier.Inaccuracy = 2
	f := newFixture(t, tier)
	f.ctrl.Reset(f.opponent)
	f.opponent.Position = geom.V(10*math.Sin(20*math.Pi/180), 0, 10*math.Cos(20*math.Pi/180))

	for i := 0; i < 20; i++ {
		before := f.self.Yaw
		d := f.ctrl.Tick(50*time.Millisecond, f.opponent)
		require.True(t, d.HasTarget)
		turned := math.Abs(geom.NormalizeDegrees(d.Yaw - before))
		assert.LessOrEqual(t, turned, tier.TurnRate+1e-9, "tick %d", i)
	}
}

func TestTick_AimJitterOffsetsLinedUpFacing(t *testing.T) {
	tier := sentinel()
	tier.TurnRate = 6
	tier.Inaccuracy = 2
	f := newFixture(t, tier)
	f.ctrl.Reset(f.opponent)

	offAxis := false
	for i := 0; i < 10; i++ {
		d := f.ctrl.Tick(50*time.Millisecond, f.opponent)
		assert.LessOrEqual(t, math.Abs(d.Yaw), tier.Inaccuracy+1e-9)
		if d.Yaw != 0 {
			offAxis = true
		}
	}
	assert.True(t, offAxis, "jitter must move a lined-up adversary off the exact bearing")
}

func TestTick_ZeroVectorKeepsContactWithoutCasting(t *testing.T) {
	f := newFixture(t, sentinel())
	f.ctrl.Reset(f.opponent)
	f.opponent.Position = f.self.Position
	yaw := f.self.Yaw

	d := f.ctrl.Tick(100*time.Millisecond, f.opponent)

	assert.True(t, d.HasTarget)
	assert.Zero(t, f.sight.casts)
	assert.Equal(t, yaw, d.Yaw)
	assert.False(t, math.IsNaN(d.Yaw))
}

func TestTick_SearchCommitsWalkablePoint(t *testing.T) {
	f := newFixture(t, sentinel())
	f.ctrl.Reset(f.opponent)
	f.sight.blocked = true
	f.nav.ok = true
	f.nav.point = geom.V(4, 0, 1)

	dt := 500 * time.Millisecond
	f.ctrl.Tick(dt, f.opponent)
	f.ctrl.Tick(dt, f.opponent)
	require.Empty(t, f.nav.searches)
	require.Equal(t, time.Second, f.ctrl.Belief().SearchTimer)

	d := f.ctrl.Tick(dt, f.opponent)

	require.Len(t, f.nav.searches, 1)
	assert.LessOrEqual(t, f.nav.searches[0].Dist(f.self.Position), npc.DefaultTier().SearchRadius+1e-9)
	assert.Equal(t, geom.V(4, 0, 1), d.MoveTarget)
	assert.Equal(t, time.Duration(0), f.ctrl.Belief().SearchTimer)
}

func TestTick_FailedSearchLeavesLastKnownPosition(t *testing.T) {
	tier := sentinel()
	tier.TimeBeforeSearch = 0
	f := newFixture(t, tier)
	f.ctrl.Reset(f.opponent)
	f.sight.blocked = true
	before := f.ctrl.Belief().LastKnownPosition

	f.ctrl.Tick(time.Second, f.opponent)

	assert.Len(t, f.nav.searches, 1)
	assert.Equal(t, before, f.ctrl.Belief().LastKnownPosition)
	assert.Equal(t, time.Duration(0), f.ctrl.Belief().SearchTimer)
}

func TestGotShot_Retaliates(t *testing.T) {
	f := newFixture(t, sentinel())
	f.ctrl.Reset(f.opponent)
	f.opponent.Position = geom.V(-6, 0, -6)

	f.ctrl.GotShot(f.opponent)

	b := f.ctrl.Belief()
	assert.True(t, b.HasTarget)
	assert.Equal(t, geom.V(-6, 0, -6), b.LastKnownPosition)
}

func TestGotShot_IgnoredWhenNotReturningFire(t *testing.T) {
	tier := sentinel()
	tier.ReturnsFire = false
	f := newFixture(t, tier)
	f.ctrl.Reset(f.opponent)
	before := f.ctrl.Belief()

	f.ctrl.GotShot(f.opponent)

	assert.Equal(t, before, f.ctrl.Belief())
}

func TestTick_PursuitTracksOpponentWithoutPerception(t *testing.T) {
	tier := sentinel()
	tier.Aim = true
	f := newFixture(t, tier)
	f.ctrl.Reset(f.opponent)
	f.sight.blocked = true

	for _, p := range []geom.Vec3{geom.V(0, 0, -10), geom.V(5, 0, 5), geom.V(-3, 0, 0)} {
		f.opponent.Position = p
		d := f.ctrl.Tick(100*time.Millisecond, f.opponent)
		assert.True(t, d.HasTarget)
		assert.Equal(t, p, d.MoveTarget)
	}
	assert.Zero(t, f.sight.casts)
	assert.Equal(t, npc.ModePursuit, f.ctrl.Belief().Mode)
}

func TestSetTier_SwitchesMode(t *testing.T) {
	f := newFixture(t, sentinel())
	tier := sentinel()
	tier.Aim = true
	f.ctrl.SetTier(tier)
	assert.Equal(t, npc.ModePursuit, f.ctrl.Belief().Mode)
	assert.True(t, f.ctrl.Tier().Aim)
}

func TestNewController_PanicsOnMissingDeps(t *testing.T) {
	self, err := combat.NewCombatant(combat.KindAdversary, "Enemy", 10)
	require.NoError(t, err)
	assert.Panics(t, func() { ai.NewController(self, sentinel(), ai.Deps{}) })
	assert.Panics(t, func() { ai.NewController(nil, sentinel(), ai.Deps{}) })
}

func TestProperty_TurnIsBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tier := sentinel()
		tier.TurnRate = rapid.Float64Range(0.5, 45).Draw(rt, "turn_rate")
		tier.Inaccuracy = rapid.Float64Range(0, 20).Draw(rt, "inaccuracy")
		tier.Aim = rapid.Bool().Draw(rt, "aim")
		f := newFixture(rt, tier)
		f.self.Yaw = rapid.Float64Range(-180, 180).Draw(rt, "yaw")
		f.ctrl.Reset(f.opponent)

		for i := 0; i < 10; i++ {
			f.opponent.Position = geom.V(
				rapid.Float64Range(-20, 20).Draw(rt, "x"),
				0,
				rapid.Float64Range(-20, 20).Draw(rt, "z"),
			)
			before := f.self.Yaw
			d := f.ctrl.Tick(50*time.Millisecond, f.opponent)
			turned := math.Abs(geom.NormalizeDegrees(d.Yaw - before))
			assert.LessOrEqual(rt, turned, tier.TurnRate+1e-9)
		}
	})
}

func TestProperty_BlindAdversaryOnlyMovesToSearchPoints(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(rt, sentinel())
		f.ctrl.Reset(f.opponent)
		f.sight.blocked = true
		f.nav.ok = rapid.Bool().Draw(rt, "walkable")
		f.nav.point = geom.V(2, 0, 2)

		allowed := []geom.Vec3{f.self.Position, f.nav.point}
		n := rapid.IntRange(1, 40).Draw(rt, "ticks")
		for i := 0; i < n; i++ {
			f.opponent.Position = geom.V(rapid.Float64Range(-9, 9).Draw(rt, "x"), 0, 10)
			d := f.ctrl.Tick(250*time.Millisecond, f.opponent)
			assert.False(rt, d.HasTarget)
			assert.Contains(rt, allowed, d.MoveTarget)
			assert.LessOrEqual(rt, f.ctrl.Belief().SearchTimer, time.Second)
		}
	})
}
