package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Game        GameConfig        `mapstructure:"game"`
	Server      ServerConfig      `mapstructure:"server"`
	Viewer      ViewerConfig      `mapstructure:"viewer"`
	Development DevelopmentConfig `mapstructure:"development"`
}

// GameConfig holds game mechanics configuration
type GameConfig struct {
	Map       MapConfig       `mapstructure:"map"`
	Tick      TickConfig      `mapstructure:"tick"`
	Economy   EconomyConfig   `mapstructure:"economy"`
	Combat    CombatConfig    `mapstructure:"combat"`
	Buildings BuildingsConfig `mapstructure:"buildings"`
	Rules     RulesConfig     `mapstructure:"rules"`
}

// MapConfig holds map generation and base placement settings
type MapConfig struct {
	Width             int     `mapstructure:"width"`
	Height            int     `mapstructure:"height"`
	Threshold         float64 `mapstructure:"threshold"`
	NoiseAmplitude    float64 `mapstructure:"noise_amplitude"`
	NoiseFrequency    float64 `mapstructure:"noise_frequency"`
	RandomPhase       bool    `mapstructure:"random_phase"`
	BaseRadius        int     `mapstructure:"base_radius"`
	ClaimRadius       int     `mapstructure:"claim_radius"`
	StartingTroops    float64 `mapstructure:"starting_troops"`
	PlacementAttempts int     `mapstructure:"placement_attempts"`
}

// TickConfig holds the loop cadence. Every value except IntervalMS is a
// number of ticks.
type TickConfig struct {
	IntervalMS   int `mapstructure:"interval_ms"`
	IncomeEvery  int `mapstructure:"income_every"`
	BotEvery     int `mapstructure:"bot_every"`
	VictoryEvery int `mapstructure:"victory_every"`
	PurgeEvery   int `mapstructure:"purge_every"`
}

// EconomyConfig holds income and spending settings
type EconomyConfig struct {
	CellGold          float64 `mapstructure:"cell_gold"`
	CellTroops        float64 `mapstructure:"cell_troops"`
	AllianceBonus     float64 `mapstructure:"alliance_bonus"`
	StartingGoldHuman float64 `mapstructure:"starting_gold_human"`
	StartingGoldBot   float64 `mapstructure:"starting_gold_bot"`
	ReinforceCost     float64 `mapstructure:"reinforce_cost"`
}

// CombatConfig holds expansion and combat settings
type CombatConfig struct {
	ExpandCost          float64 `mapstructure:"expand_cost"`
	NeutralSeedTroops   float64 `mapstructure:"neutral_seed_troops"`
	AttackLossFactor    float64 `mapstructure:"attack_loss_factor"`
	SurvivalFactor      float64 `mapstructure:"survival_factor"`
	AlliedSupportFactor float64 `mapstructure:"allied_support_factor"`
	DiffEpsilon         float64 `mapstructure:"diff_epsilon"`
}

// BuildingConfig holds the economics of one building type
type BuildingConfig struct {
	Cost   float64 `mapstructure:"cost"`
	Gold   float64 `mapstructure:"gold"`
	Troops float64 `mapstructure:"troops"`
}

// BuildingsConfig holds the building table
type BuildingsConfig struct {
	City     BuildingConfig `mapstructure:"city"`
	Port     BuildingConfig `mapstructure:"port"`
	Outpost  BuildingConfig `mapstructure:"outpost"`
	Barracks BuildingConfig `mapstructure:"barracks"`
}

// RulesConfig holds match rules
type RulesConfig struct {
	VictoryThreshold float64       `mapstructure:"victory_threshold"`
	MinParticipants  int           `mapstructure:"min_participants"`
	MaxPlayers       int           `mapstructure:"max_players"`
	AllianceTimeout  time.Duration `mapstructure:"alliance_timeout"`
	TradeTimeout     time.Duration `mapstructure:"trade_timeout"`
	BotDifficulty    string        `mapstructure:"bot_difficulty"`
	BotThinkMin      time.Duration `mapstructure:"bot_think_min"`
	BotThinkMax      time.Duration `mapstructure:"bot_think_max"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	LogLevel string      `mapstructure:"log_level"`
	HTTP     HTTPConfig  `mapstructure:"http"`
	GRPC     GRPCConfig  `mapstructure:"grpc"`
	Rooms    RoomsConfig `mapstructure:"rooms"`
}

// HTTPConfig holds the websocket/HTTP listener configuration
type HTTPConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// GRPCConfig holds the admin gRPC listener configuration
type GRPCConfig struct {
	Host                  string `mapstructure:"host"`
	Port                  int    `mapstructure:"port"`
	EnableReflection      bool   `mapstructure:"enable_reflection"`
	GracefulShutdownDelay int    `mapstructure:"graceful_shutdown_delay"`
}

// RoomsConfig holds match registry settings
type RoomsConfig struct {
	MaxRooms         int           `mapstructure:"max_rooms"`
	FinishedTTL      time.Duration `mapstructure:"finished_ttl"`
	AbandonedTimeout time.Duration `mapstructure:"abandoned_timeout"`
	CleanupInterval  time.Duration `mapstructure:"cleanup_interval"`
	SendBuffer       int           `mapstructure:"send_buffer"`
}

// ViewerConfig holds spectator viewer settings
type ViewerConfig struct {
	ServerURL string `mapstructure:"server_url"`
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
	Title     string `mapstructure:"title"`
	CellSize  int    `mapstructure:"cell_size"`
}

// DevelopmentConfig holds development/debug settings
type DevelopmentConfig struct {
	VerboseLogging bool `mapstructure:"verbose_logging"`
	LogEvents      bool `mapstructure:"log_events"`
}

var (
	// Global config instance
	cfg *Config
	v   *viper.Viper
)

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	// Map defaults
	v.SetDefault("game.map.width", 150)
	v.SetDefault("game.map.height", 100)
	v.SetDefault("game.map.threshold", 0.6)
	v.SetDefault("game.map.noise_amplitude", 0.3)
	v.SetDefault("game.map.noise_frequency", 0.1)
	v.SetDefault("game.map.random_phase", false)
	v.SetDefault("game.map.base_radius", 15)
	v.SetDefault("game.map.claim_radius", 3)
	v.SetDefault("game.map.starting_troops", 100)
	v.SetDefault("game.map.placement_attempts", 1000)

	// Tick defaults
	v.SetDefault("game.tick.interval_ms", 100)
	v.SetDefault("game.tick.income_every", 10)
	v.SetDefault("game.tick.bot_every", 5)
	v.SetDefault("game.tick.victory_every", 50)
	v.SetDefault("game.tick.purge_every", 10)

	// Economy defaults
	v.SetDefault("game.economy.cell_gold", 1.0)
	v.SetDefault("game.economy.cell_troops", 0.1)
	v.SetDefault("game.economy.alliance_bonus", 0.1)
	v.SetDefault("game.economy.starting_gold_human", 1000)
	v.SetDefault("game.economy.starting_gold_bot", 500)
	v.SetDefault("game.economy.reinforce_cost", 10)

	// Combat defaults
	v.SetDefault("game.combat.expand_cost", 50)
	v.SetDefault("game.combat.neutral_seed_troops", 5)
	v.SetDefault("game.combat.attack_loss_factor", 0.7)
	v.SetDefault("game.combat.survival_factor", 0.5)
	v.SetDefault("game.combat.allied_support_factor", 0.5)
	v.SetDefault("game.combat.diff_epsilon", 0.5)

	// Building table
	v.SetDefault("game.buildings.city.cost", 500)
	v.SetDefault("game.buildings.city.gold", 5)
	v.SetDefault("game.buildings.city.troops", 0.5)
	v.SetDefault("game.buildings.port.cost", 300)
	v.SetDefault("game.buildings.port.gold", 3)
	v.SetDefault("game.buildings.port.troops", 0.2)
	v.SetDefault("game.buildings.outpost.cost", 200)
	v.SetDefault("game.buildings.outpost.gold", 0.5)
	v.SetDefault("game.buildings.outpost.troops", 0.5)
	v.SetDefault("game.buildings.barracks.cost", 400)
	v.SetDefault("game.buildings.barracks.gold", 0)
	v.SetDefault("game.buildings.barracks.troops", 2)

	// Rules defaults
	v.SetDefault("game.rules.victory_threshold", 0.8)
	v.SetDefault("game.rules.min_participants", 4)
	v.SetDefault("game.rules.max_players", 12)
	v.SetDefault("game.rules.alliance_timeout", 60*time.Second)
	v.SetDefault("game.rules.trade_timeout", 60*time.Second)
	v.SetDefault("game.rules.bot_difficulty", "medium")
	v.SetDefault("game.rules.bot_think_min", time.Second)
	v.SetDefault("game.rules.bot_think_max", 3*time.Second)

	// Server defaults
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 3000)
	v.SetDefault("server.http.read_timeout", 15*time.Second)
	v.SetDefault("server.http.write_timeout", 15*time.Second)
	v.SetDefault("server.http.allowed_origins", []string{"*"})

	// gRPC admin defaults
	v.SetDefault("server.grpc.host", "0.0.0.0")
	v.SetDefault("server.grpc.port", 50051)
	v.SetDefault("server.grpc.enable_reflection", true)
	v.SetDefault("server.grpc.graceful_shutdown_delay", 5)

	// Room registry defaults
	v.SetDefault("server.rooms.max_rooms", 100)
	v.SetDefault("server.rooms.finished_ttl", 10*time.Minute)
	v.SetDefault("server.rooms.abandoned_timeout", 30*time.Minute)
	v.SetDefault("server.rooms.cleanup_interval", 5*time.Minute)
	v.SetDefault("server.rooms.send_buffer", 256)

	// Viewer defaults
	v.SetDefault("viewer.server_url", "ws://localhost:3000/ws")
	v.SetDefault("viewer.width", 1200)
	v.SetDefault("viewer.height", 800)
	v.SetDefault("viewer.title", "Op-V2 Spectator")
	v.SetDefault("viewer.cell_size", 8)

	// Development defaults
	v.SetDefault("development.verbose_logging", false)
	v.SetDefault("development.log_events", false)
}

// Init initializes the configuration
func Init(configPath string) error {
	v = viper.New()

	// Set defaults before loading any config
	setViperDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/op-v2")
	}

	// OPV2_GAME_MAP_WIDTH overrides game.map.width
	v.SetEnvPrefix("OPV2")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing explicit file falls back to defaults; for the default
		// search path only ConfigFileNotFoundError is ignored.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath == "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		// Initialize with defaults if not already initialized
		if err := Init(""); err != nil {
			panic("failed to initialize config with defaults: " + err.Error())
		}
	}
	return cfg
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// LoadEnvironmentConfig loads environment-specific config overlay
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}

	// The overlay sits next to the base file, e.g. config/config.production.yaml.
	envFile := fmt.Sprintf("config.%s.yaml", env)
	if base := v.ConfigFileUsed(); base != "" {
		envFile = filepath.Join(filepath.Dir(base), envFile)
	}
	if _, err := os.Stat(envFile); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	v.SetConfigFile(envFile)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("error merging environment config %s: %w", envFile, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode merged config into struct: %w", err)
	}

	return Validate(cfg)
}

// Set allows runtime config updates
func Set(key string, value interface{}) {
	v.Set(key, value)
	_ = v.Unmarshal(cfg)
}

// GetString gets a string value from config
func GetString(key string) string {
	return v.GetString(key)
}

// GetInt gets an int value from config
func GetInt(key string) int {
	return v.GetInt(key)
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return v.ConfigFileUsed()
}

// WatchConfig enables hot-reloading of the config file. A change that fails
// validation is reported to onChange and the previous values are kept.
func WatchConfig(onChange func(*Config, error)) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		next := &Config{}
		err := v.Unmarshal(next)
		if err == nil {
			err = Validate(next)
		}
		if err == nil {
			*cfg = *next
		}
		if onChange != nil {
			onChange(cfg, err)
		}
	})
}

// Validate validates the configuration values
func Validate(c *Config) error {
	m := c.Game.Map
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("game.map dimensions must be positive")
	}
	if m.Threshold <= 0 {
		return fmt.Errorf("game.map.threshold must be positive")
	}
	if m.BaseRadius < 0 || m.ClaimRadius < 0 {
		return fmt.Errorf("game.map radii must be non-negative")
	}
	if m.StartingTroops <= 0 {
		return fmt.Errorf("game.map.starting_troops must be positive")
	}
	if m.PlacementAttempts <= 0 {
		return fmt.Errorf("game.map.placement_attempts must be positive")
	}

	t := c.Game.Tick
	if t.IntervalMS <= 0 {
		return fmt.Errorf("game.tick.interval_ms must be positive")
	}
	if t.IncomeEvery <= 0 || t.BotEvery <= 0 || t.VictoryEvery <= 0 || t.PurgeEvery <= 0 {
		return fmt.Errorf("game.tick intervals must be positive")
	}

	e := c.Game.Economy
	if e.CellGold < 0 || e.CellTroops < 0 || e.AllianceBonus < 0 {
		return fmt.Errorf("game.economy rates must be non-negative")
	}
	if e.StartingGoldHuman < 0 || e.StartingGoldBot < 0 {
		return fmt.Errorf("game.economy starting gold must be non-negative")
	}
	if e.ReinforceCost <= 0 {
		return fmt.Errorf("game.economy.reinforce_cost must be positive")
	}

	cb := c.Game.Combat
	if cb.ExpandCost < 0 || cb.NeutralSeedTroops < 0 {
		return fmt.Errorf("game.combat costs must be non-negative")
	}
	for name, f := range map[string]float64{
		"attack_loss_factor":    cb.AttackLossFactor,
		"survival_factor":       cb.SurvivalFactor,
		"allied_support_factor": cb.AlliedSupportFactor,
	} {
		if f < 0 || f > 1 {
			return fmt.Errorf("game.combat.%s must be between 0 and 1", name)
		}
	}
	if cb.DiffEpsilon < 0 {
		return fmt.Errorf("game.combat.diff_epsilon must be non-negative")
	}

	for name, b := range map[string]BuildingConfig{
		"city":     c.Game.Buildings.City,
		"port":     c.Game.Buildings.Port,
		"outpost":  c.Game.Buildings.Outpost,
		"barracks": c.Game.Buildings.Barracks,
	} {
		if b.Cost < 0 || b.Gold < 0 || b.Troops < 0 {
			return fmt.Errorf("game.buildings.%s values must be non-negative", name)
		}
	}

	r := c.Game.Rules
	if r.VictoryThreshold <= 0 || r.VictoryThreshold > 1 {
		return fmt.Errorf("game.rules.victory_threshold must be in (0, 1]")
	}
	if r.MinParticipants < 1 {
		return fmt.Errorf("game.rules.min_participants must be at least 1")
	}
	if r.MaxPlayers < r.MinParticipants {
		return fmt.Errorf("game.rules.max_players must be at least min_participants")
	}
	if r.AllianceTimeout <= 0 || r.TradeTimeout <= 0 {
		return fmt.Errorf("game.rules timeouts must be positive")
	}
	switch r.BotDifficulty {
	case "easy", "medium", "hard", "insane":
	default:
		return fmt.Errorf("game.rules.bot_difficulty %q is not one of easy, medium, hard, insane", r.BotDifficulty)
	}
	if r.BotThinkMin < 0 || r.BotThinkMax < r.BotThinkMin {
		return fmt.Errorf("game.rules bot think window is invalid")
	}

	s := c.Server
	if s.HTTP.Port <= 0 || s.HTTP.Port > 65535 {
		return fmt.Errorf("server.http.port must be between 1 and 65535")
	}
	if s.GRPC.Port <= 0 || s.GRPC.Port > 65535 {
		return fmt.Errorf("server.grpc.port must be between 1 and 65535")
	}
	if s.GRPC.GracefulShutdownDelay < 0 {
		return fmt.Errorf("server.grpc.graceful_shutdown_delay must be non-negative")
	}
	if s.Rooms.MaxRooms <= 0 {
		return fmt.Errorf("server.rooms.max_rooms must be positive")
	}
	if s.Rooms.SendBuffer <= 0 {
		return fmt.Errorf("server.rooms.send_buffer must be positive")
	}
	if s.Rooms.CleanupInterval <= 0 {
		return fmt.Errorf("server.rooms.cleanup_interval must be positive")
	}

	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 || c.Viewer.CellSize <= 0 {
		return fmt.Errorf("viewer dimensions must be positive")
	}

	return nil
}
