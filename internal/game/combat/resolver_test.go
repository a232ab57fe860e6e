package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/duelpanto/internal/game/combat"
	"github.com/cory-johannsen/duelpanto/internal/game/entity"
	"github.com/cory-johannsen/duelpanto/internal/game/geom"
	"github.com/cory-johannsen/duelpanto/internal/game/health"
	"github.com/cory-johannsen/duelpanto/internal/game/spatial"
)

type castCall struct {
	origin, dir geom.Vec3
	maxDist     float64
	mask        spatial.Mask
}

// scriptedScene returns the same hit for every cast and records calls.
type scriptedScene struct {
	hit   spatial.Hit
	ok    bool
	calls []castCall
}

func (s *scriptedScene) Raycast(origin, dir geom.Vec3, maxDist float64, mask spatial.Mask) (spatial.Hit, bool) {
	s.calls = append(s.calls, castCall{origin, dir, maxDist, mask})
	return s.hit, s.ok
}

type lookup map[entity.ID]*health.Health

func (l lookup) HealthOf(id entity.ID) (*health.Health, bool) {
	h, ok := l[id]
	return h, ok
}

type presented struct {
	lines []geom.Vec3
	cues  []combat.Cue
}

func (p *presented) ShowLineOfFire(_ entity.ID, _, to geom.Vec3) { p.lines = append(p.lines, to) }
func (p *presented) PlayCue(_ entity.ID, cue combat.Cue)          { p.cues = append(p.cues, cue) }

func duelists(t *testing.T) (*combat.Combatant, *combat.Combatant) {
	t.Helper()
	shooter, err := combat.NewCombatant(combat.KindPlayer, "Player", 20)
	require.NoError(t, err)
	target, err := combat.NewCombatant(combat.KindAdversary, "Enemy", 20)
	require.NoError(t, err)
	shooter.Spawn(geom.V(0, 0, 0), 0)
	target.Spawn(geom.V(0, 0, 10), 180)
	return shooter, target
}

func TestResolve_HitAppliesDamageOnce(t *testing.T) {
	shooter, target := duelists(t)
	scene := &scriptedScene{ok: true, hit: spatial.Hit{Entity: target.ID, Point: geom.V(0, 0, 9.5), Distance: 9.5}}
	out := &presented{}
	r := combat.NewResolver(shooter, combat.DefaultWeapon(), scene, lookup{target.ID: target.Health}, out, zap.NewNop())

	shot := r.Resolve(target)

	assert.Equal(t, combat.CueHit, shot.Cue)
	assert.True(t, shot.Damaged)
	assert.Equal(t, target.ID, shot.Struck)
	assert.Equal(t, 18, target.Health.Points())
	assert.Len(t, scene.calls, 1)
	assert.Equal(t, []combat.Cue{combat.CueHit}, out.cues)
	assert.Equal(t, []geom.Vec3{geom.V(0, 0, 9.5)}, out.lines)
}

func TestResolve_WallIsDistinctFromMiss(t *testing.T) {
	shooter, target := duelists(t)
	scene := &scriptedScene{ok: true, hit: spatial.Hit{Point: geom.V(0, 0, 3), Distance: 3, Layer: spatial.LayerWalls}}
	r := combat.NewResolver(shooter, combat.DefaultWeapon(), scene, lookup{target.ID: target.Health}, nil, zap.NewNop())

	shot := r.Resolve(target)

	assert.Equal(t, combat.CueWall, shot.Cue)
	assert.False(t, shot.Damaged)
	assert.Equal(t, geom.V(0, 0, 3), shot.To)
	assert.Equal(t, 20, target.Health.Points())
}

func TestResolve_MissReportsFullRangeEndpoint(t *testing.T) {
	shooter, _ := duelists(t)
	shooter.Yaw = 90
	scene := &scriptedScene{ok: false}
	r := combat.NewResolver(shooter, combat.DefaultWeapon(), scene, lookup{}, nil, zap.NewNop())

	shot := r.Resolve(nil)

	assert.Equal(t, combat.CueDefault, shot.Cue)
	assert.InDelta(t, 20, shot.To.X, 1e-9)
	assert.InDelta(t, 0, shot.To.Z, 1e-9)
}

func TestResolve_AssistSnapsInsideCone(t *testing.T) {
	shooter, target := duelists(t)
	target.Position = geom.V(0.2, 0, 10) // ~1.15 degrees off forward
	scene := &scriptedScene{ok: false}
	r := combat.NewResolver(shooter, combat.DefaultWeapon(), scene, lookup{}, nil, zap.NewNop())

	shot := r.Resolve(target)

	require.Len(t, scene.calls, 1)
	assert.True(t, shot.Assisted)
	want, _ := geom.V(0.2, 0, 10).Normalized()
	assert.InDelta(t, want.X, scene.calls[0].dir.X, 1e-9)
	assert.InDelta(t, want.Z, scene.calls[0].dir.Z, 1e-9)
	assert.Equal(t, 20.0, scene.calls[0].maxDist)
}

func TestResolve_AssistedMissEndsAlongForward(t *testing.T) {
	shooter, target := duelists(t)
	target.Position = geom.V(0.3, 0, 10) // ~1.7 degrees, inside the 2 degree cone
	scene := &scriptedScene{ok: false}
	out := &presented{}
	r := combat.NewResolver(shooter, combat.DefaultWeapon(), scene, lookup{}, out, zap.NewNop())

	shot := r.Resolve(target)

	require.True(t, shot.Assisted)
	assert.Equal(t, combat.CueDefault, shot.Cue)
	assert.InDelta(t, 0, shot.To.X, 1e-9)
	assert.InDelta(t, 20, shot.To.Z, 1e-9)
	assert.Equal(t, []geom.Vec3{shot.To}, out.lines)
}

func TestResolve_OutsideConeUsesForward(t *testing.T) {
	shooter, target := duelists(t)
	target.Position = geom.V(5, 0, 5)
	scene := &scriptedScene{ok: false}
	r := combat.NewResolver(shooter, combat.DefaultWeapon(), scene, lookup{}, nil, zap.NewNop())

	shot := r.Resolve(target)

	assert.False(t, shot.Assisted)
	assert.InDelta(t, 1, scene.calls[0].dir.Z, 1e-9)
}

func TestResolve_AssistDisabledUsesForward(t *testing.T) {
	shooter, target := duelists(t)
	target.Position = geom.V(0.2, 0, 10)
	w := combat.DefaultWeapon()
	w.Assist = false
	scene := &scriptedScene{ok: false}
	r := combat.NewResolver(shooter, w, scene, lookup{}, nil, zap.NewNop())

	assert.False(t, r.Resolve(target).Assisted)
	assert.Equal(t, geom.V(0, 0, 1), scene.calls[0].dir)
}

func TestResolve_SelfHitIsWall(t *testing.T) {
	shooter, _ := duelists(t)
	scene := &scriptedScene{ok: true, hit: spatial.Hit{Entity: shooter.ID}}
	r := combat.NewResolver(shooter, combat.DefaultWeapon(), scene, lookup{shooter.ID: shooter.Health}, nil, zap.NewNop())

	assert.Equal(t, combat.CueWall, r.Resolve(nil).Cue)
	assert.Equal(t, 20, shooter.Health.Points())
}

func TestProperty_NeverDamagesWithoutHealth(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		shooter, err := combat.NewCombatant(combat.KindAdversary, "Enemy", 10)
		require.NoError(rt, err)
		shooter.Spawn(geom.Vec3{}, rapid.Float64Range(-180, 180).Draw(rt, "yaw"))
		victim, err := combat.NewCombatant(combat.KindPlayer, "Player", 10)
		require.NoError(rt, err)
		victim.Spawn(geom.V(0, 0, 5), 0)

		struck := entity.ID(rapid.SampledFrom([]string{"", "crate", "pillar"}).Draw(rt, "struck"))
		scene := &scriptedScene{ok: true, hit: spatial.Hit{Entity: struck, Point: geom.V(0, 0, 1)}}
		r := combat.NewResolver(shooter, combat.DefaultWeapon(), scene, lookup{victim.ID: victim.Health}, nil, zap.NewNop())

		shot := r.Resolve(victim)
		assert.False(rt, shot.Damaged)
		assert.Equal(rt, combat.CueWall, shot.Cue)
		assert.Equal(rt, 10, victim.Health.Points())
	})
}

func TestProperty_AtMostOneDamagePerResolve(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		shooter, err := combat.NewCombatant(combat.KindPlayer, "Player", 10)
		require.NoError(rt, err)
		shooter.Spawn(geom.Vec3{}, 0)
		victim, err := combat.NewCombatant(combat.KindAdversary, "Enemy", 1000)
		require.NoError(rt, err)
		victim.Spawn(geom.V(0, 0, 5), 0)
		hits := 0
		victim.Health.OnDamaged(func(health.DamageEvent) { hits++ })

		scene := &scriptedScene{ok: true, hit: spatial.Hit{Entity: victim.ID}}
		r := combat.NewResolver(shooter, combat.DefaultWeapon(), scene, lookup{victim.ID: victim.Health}, nil, zap.NewNop())
		n := rapid.IntRange(1, 50).Draw(rt, "ticks")
		for i := 0; i < n; i++ {
			r.Resolve(victim)
		}
		assert.Equal(rt, n, hits)
		assert.Equal(rt, 1000-2*n, victim.Health.Points())
	})
}
