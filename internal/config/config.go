// Package config provides Viper-based configuration loading for the duel runner.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// SimulationConfig holds fixed-step loop settings.
type SimulationConfig struct {
	// TickHz is the number of simulation steps per second.
	TickHz float64 `mapstructure:"tick_hz"`
	// MaxEncounter aborts a run whose current encounter exceeds this much
	// simulated time; 0 disables the limit.
	MaxEncounter time.Duration `mapstructure:"max_encounter"`
	// Realtime paces steps against the wall clock instead of running flat out.
	Realtime bool `mapstructure:"realtime"`
}

// WeaponConfig describes a hitscan gun.
type WeaponConfig struct {
	Damage   int     `mapstructure:"damage"`
	MaxRange float64 `mapstructure:"max_range"`
	// ConeHalfAngle is the assist-aim cone in degrees.
	ConeHalfAngle float64 `mapstructure:"cone_half_angle"`
	Assist        bool    `mapstructure:"assist"`
}

// PlayerConfig holds the human combatant's settings.
type PlayerConfig struct {
	Name      string       `mapstructure:"name"`
	MaxHealth int          `mapstructure:"max_health"`
	Speed     float64      `mapstructure:"speed"`
	Weapon    WeaponConfig `mapstructure:"weapon"`
	// AimWobble is the maximum aim error in degrees of the scripted player.
	AimWobble float64 `mapstructure:"aim_wobble"`
	// ApproachRange is the distance the scripted player closes to; 0 holds
	// position.
	ApproachRange float64 `mapstructure:"approach_range"`
}

// SessionConfig holds series settings and content locations.
type SessionConfig struct {
	TiersFile   string `mapstructure:"tiers_file"`
	ArenaFile   string `mapstructure:"arena_file"`
	StartLevel  int    `mapstructure:"start_level"`
	TrophyScore int    `mapstructure:"trophy_score"`
	// Debug skips the leaderboard submission.
	Debug bool `mapstructure:"debug"`
}

// ReplayConfig controls replay recording.
type ReplayConfig struct {
	// Dir is the directory bundles are written under; empty disables recording.
	Dir string `mapstructure:"dir"`
	// FrameInterval is the simulated time between recorded frames.
	FrameInterval time.Duration `mapstructure:"frame_interval"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging         LoggingConfig    `mapstructure:"logging"`
	Simulation      SimulationConfig `mapstructure:"simulation"`
	Player          PlayerConfig     `mapstructure:"player"`
	AdversaryWeapon WeaponConfig     `mapstructure:"adversary_weapon"`
	Session         SessionConfig    `mapstructure:"session"`
	Replay          ReplayConfig     `mapstructure:"replay"`
	// Seed selects a deterministic dice source when non-zero.
	Seed int64 `mapstructure:"seed"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validatePlayer(c.Player); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateWeapon("adversary_weapon", c.AdversaryWeapon); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSession(c.Session); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateReplay(c.Replay); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.TickHz <= 0 || s.TickHz > 1000 {
		errs = append(errs, fmt.Sprintf("simulation.tick_hz must be in (0, 1000], got %g", s.TickHz))
	}
	if s.MaxEncounter < 0 {
		errs = append(errs, "simulation.max_encounter must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validatePlayer(p PlayerConfig) error {
	var errs []string
	if p.Name == "" {
		errs = append(errs, "player.name must not be empty")
	}
	if p.MaxHealth < 1 {
		errs = append(errs, fmt.Sprintf("player.max_health must be >= 1, got %d", p.MaxHealth))
	}
	if p.Speed < 0 {
		errs = append(errs, fmt.Sprintf("player.speed must be >= 0, got %g", p.Speed))
	}
	if p.AimWobble < 0 || p.AimWobble > 180 {
		errs = append(errs, fmt.Sprintf("player.aim_wobble must be in [0, 180], got %g", p.AimWobble))
	}
	if p.ApproachRange < 0 {
		errs = append(errs, fmt.Sprintf("player.approach_range must be >= 0, got %g", p.ApproachRange))
	}
	if err := validateWeapon("player.weapon", p.Weapon); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateWeapon(prefix string, w WeaponConfig) error {
	var errs []string
	if w.Damage < 1 {
		errs = append(errs, fmt.Sprintf("%s.damage must be >= 1, got %d", prefix, w.Damage))
	}
	if w.MaxRange <= 0 {
		errs = append(errs, fmt.Sprintf("%s.max_range must be > 0, got %g", prefix, w.MaxRange))
	}
	if w.ConeHalfAngle < 0 || w.ConeHalfAngle > 180 {
		errs = append(errs, fmt.Sprintf("%s.cone_half_angle must be in [0, 180], got %g", prefix, w.ConeHalfAngle))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateSession(s SessionConfig) error {
	var errs []string
	if s.TiersFile == "" {
		errs = append(errs, "session.tiers_file must not be empty")
	}
	if s.ArenaFile == "" {
		errs = append(errs, "session.arena_file must not be empty")
	}
	if s.TrophyScore < 1 {
		errs = append(errs, fmt.Sprintf("session.trophy_score must be >= 1, got %d", s.TrophyScore))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateReplay(r ReplayConfig) error {
	if r.FrameInterval <= 0 {
		return fmt.Errorf("replay.frame_interval must be > 0, got %s", r.FrameInterval)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with DUEL_ prefix
	v.SetEnvPrefix("DUEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
// Defaults are applied for keys the instance does not set.
//
// Precondition: v must be non-nil.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("simulation.tick_hz", 50)
	v.SetDefault("simulation.max_encounter", "5m")
	v.SetDefault("simulation.realtime", false)

	v.SetDefault("player.name", "player")
	v.SetDefault("player.max_health", 20)
	v.SetDefault("player.speed", 4)
	v.SetDefault("player.aim_wobble", 3)
	v.SetDefault("player.approach_range", 8)
	setWeaponDefaults(v, "player.weapon")
	setWeaponDefaults(v, "adversary_weapon")

	v.SetDefault("session.tiers_file", "content/tiers.yaml")
	v.SetDefault("session.arena_file", "content/arena.yaml")
	v.SetDefault("session.start_level", 0)
	v.SetDefault("session.trophy_score", 10000)
	v.SetDefault("session.debug", false)

	v.SetDefault("replay.dir", "")
	v.SetDefault("replay.frame_interval", "200ms")

	v.SetDefault("seed", 0)
}

func setWeaponDefaults(v *viper.Viper, prefix string) {
	v.SetDefault(prefix+".damage", 2)
	v.SetDefault(prefix+".max_range", 20)
	v.SetDefault(prefix+".cone_half_angle", 2)
	v.SetDefault(prefix+".assist", true)
}
