// Package config loads the values a running profile needs. The
// original implementation's configuration DSL (a small embedded Lisp
// interpreter) is an out-of-scope external collaborator; this package
// only ever ingests the values that DSL would have produced, expressed
// here as YAML so the resulting Config struct is built the same way
// regardless of what produced the document.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PhaseMultipliers is the 3-entry early/mid/end multiplier row used by
// both the assignment engine and the spectator attractiveness score,
// one row per player class (new vs experienced).
type PhaseMultipliers struct {
	Early float64 `yaml:"early_phase_mult"`
	Mid   float64 `yaml:"mid_phase_mult"`
	End   float64 `yaml:"end_phase_mult"`
}

// Profile is a single named server instance's full configuration,
// directly modeling the original WambleConfig plus the per-profile
// fields a defprofile block would have supplied.
type Profile struct {
	Name       string `yaml:"name"`
	Advertise  bool   `yaml:"advertise"`
	Visibility int    `yaml:"visibility"`
	DBIsolated bool   `yaml:"db_isolated"`

	Port        int `yaml:"port"`
	TimeoutMS   int `yaml:"timeout_ms"`
	MaxRetries  int `yaml:"max_retries"`
	MaxMsgSize  int `yaml:"max_message_size"`
	BufferSize  int `yaml:"buffer_size"`

	MaxClientSessions int `yaml:"max_client_sessions"`
	SessionTimeout    int `yaml:"session_timeout"`

	MaxBoards          int `yaml:"max_boards"`
	MinBoards          int `yaml:"min_boards"`
	InactivityTimeout  int `yaml:"inactivity_timeout"`
	ReservationTimeout int `yaml:"reservation_timeout"`

	KFactor        float64 `yaml:"k_factor"`
	DefaultRating  float64 `yaml:"default_rating"`
	MaxPlayers     int     `yaml:"max_players"`
	TokenExpiration int    `yaml:"token_expiration"`

	MaxPot            float64 `yaml:"max_pot"`
	MaxMovesPerBoard  int     `yaml:"max_moves_per_board"`
	MaxContributors   int     `yaml:"max_contributors"`

	NewPlayerMult        PhaseMultipliers `yaml:"new_player"`
	ExperiencedPlayerMult PhaseMultipliers `yaml:"experienced_player"`

	SpectatorVisibility          int    `yaml:"spectator_visibility"`
	SpectatorSummaryHz           float64 `yaml:"spectator_summary_hz"`
	SpectatorFocusHz             float64 `yaml:"spectator_focus_hz"`
	SpectatorSummaryChangesOnly  bool   `yaml:"spectator_summary_changes_only"`
	SpectatorMaxFocusPerSession  int    `yaml:"spectator_max_focus_per_session"`
	MaxSpectators                int    `yaml:"max_spectators"`
	AdminTrustLevel              int    `yaml:"admin_trust_level"`

	SelectTimeoutUsec  int `yaml:"select_timeout_usec"`
	CleanupIntervalSec int `yaml:"cleanup_interval_sec"`

	MaxTokenAttempts      int `yaml:"max_token_attempts"`
	MaxTokenLocalAttempts int `yaml:"max_token_local_attempts"`
	DBLogFrequency        int `yaml:"db_log_frequency"`

	StorageDriver string `yaml:"storage_driver"`
	StorageDSN    string `yaml:"storage_dsn"`
	DBHost        string `yaml:"db_host"`
	DBUser        string `yaml:"db_user"`
	DBPass        string `yaml:"db_pass"`
	DBName        string `yaml:"db_name"`
}

// File is the top-level document named by --config: a list of
// profiles. An invocation runs the one named by --profile, or all of
// them when no name is given.
type File struct {
	Profiles []Profile `yaml:"profiles"`
}

// Defaults mirrors config_set_defaults from the original: every field
// a Profile omits in YAML falls back to these values before the file
// is parsed over top of them.
func Defaults() Profile {
	return Profile{
		Name:              "default",
		Advertise:         true,
		Port:              8888,
		TimeoutMS:         100,
		MaxRetries:        3,
		MaxMsgSize:        4096,
		BufferSize:        65536,
		MaxClientSessions: 1024,
		SessionTimeout:    300,

		MaxBoards:          1024,
		MinBoards:          4,
		InactivityTimeout:  300,
		ReservationTimeout: 2,

		KFactor:         32.0,
		DefaultRating:   1200.0,
		MaxPlayers:      1024,
		TokenExpiration: 86400,

		MaxPot:           20.0,
		MaxMovesPerBoard: 1000,
		MaxContributors:  100,

		NewPlayerMult:         PhaseMultipliers{Early: 2.0, Mid: 1.0, End: 0.5},
		ExperiencedPlayerMult: PhaseMultipliers{Early: 0.5, Mid: 1.0, End: 2.0},

		SpectatorSummaryHz:          2,
		SpectatorFocusHz:            5,
		SpectatorMaxFocusPerSession: 1,
		MaxSpectators:               64,
		AdminTrustLevel:              100,

		SelectTimeoutUsec:  100000,
		CleanupIntervalSec: 60,

		MaxTokenAttempts:      1000,
		MaxTokenLocalAttempts: 100,
		DBLogFrequency:        100,

		StorageDriver: "sqlite",
		StorageDSN:    "wamble.db",
	}
}

// Load reads and parses path, merging each profile entry over
// Defaults() so an operator only needs to name the fields they want
// to override.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var doc struct {
		Profiles []yaml.Node `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	var f File
	for i := range doc.Profiles {
		p := Defaults()
		if err := doc.Profiles[i].Decode(&p); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		f.Profiles = append(f.Profiles, mergeDefaults(p))
	}
	if len(f.Profiles) == 0 {
		f.Profiles = []Profile{Defaults()}
	}
	return &f, nil
}

func mergeDefaults(p Profile) Profile {
	d := Defaults()
	if p.Name == "" {
		p.Name = d.Name
	}
	if p.Port == 0 {
		p.Port = d.Port
	}
	if p.TimeoutMS == 0 {
		p.TimeoutMS = d.TimeoutMS
	}
	if p.MaxRetries == 0 {
		p.MaxRetries = d.MaxRetries
	}
	if p.MaxMsgSize == 0 {
		p.MaxMsgSize = d.MaxMsgSize
	}
	if p.BufferSize == 0 {
		p.BufferSize = d.BufferSize
	}
	if p.MaxClientSessions == 0 {
		p.MaxClientSessions = d.MaxClientSessions
	}
	if p.SessionTimeout == 0 {
		p.SessionTimeout = d.SessionTimeout
	}
	if p.MaxBoards == 0 {
		p.MaxBoards = d.MaxBoards
	}
	if p.MinBoards == 0 {
		p.MinBoards = d.MinBoards
	}
	if p.InactivityTimeout == 0 {
		p.InactivityTimeout = d.InactivityTimeout
	}
	if p.ReservationTimeout == 0 {
		p.ReservationTimeout = d.ReservationTimeout
	}
	if p.KFactor == 0 {
		p.KFactor = d.KFactor
	}
	if p.DefaultRating == 0 {
		p.DefaultRating = d.DefaultRating
	}
	if p.MaxPlayers == 0 {
		p.MaxPlayers = d.MaxPlayers
	}
	if p.TokenExpiration == 0 {
		p.TokenExpiration = d.TokenExpiration
	}
	if p.MaxPot == 0 {
		p.MaxPot = d.MaxPot
	}
	if p.MaxMovesPerBoard == 0 {
		p.MaxMovesPerBoard = d.MaxMovesPerBoard
	}
	if p.MaxContributors == 0 {
		p.MaxContributors = d.MaxContributors
	}
	if (p.NewPlayerMult == PhaseMultipliers{}) {
		p.NewPlayerMult = d.NewPlayerMult
	}
	if (p.ExperiencedPlayerMult == PhaseMultipliers{}) {
		p.ExperiencedPlayerMult = d.ExperiencedPlayerMult
	}
	if p.SpectatorSummaryHz == 0 {
		p.SpectatorSummaryHz = d.SpectatorSummaryHz
	}
	if p.SpectatorFocusHz == 0 {
		p.SpectatorFocusHz = d.SpectatorFocusHz
	}
	if p.SpectatorMaxFocusPerSession == 0 {
		p.SpectatorMaxFocusPerSession = d.SpectatorMaxFocusPerSession
	}
	if p.MaxSpectators == 0 {
		p.MaxSpectators = d.MaxSpectators
	}
	if p.AdminTrustLevel == 0 {
		p.AdminTrustLevel = d.AdminTrustLevel
	}
	if p.SelectTimeoutUsec == 0 {
		p.SelectTimeoutUsec = d.SelectTimeoutUsec
	}
	if p.CleanupIntervalSec == 0 {
		p.CleanupIntervalSec = d.CleanupIntervalSec
	}
	if p.MaxTokenAttempts == 0 {
		p.MaxTokenAttempts = d.MaxTokenAttempts
	}
	if p.MaxTokenLocalAttempts == 0 {
		p.MaxTokenLocalAttempts = d.MaxTokenLocalAttempts
	}
	if p.DBLogFrequency == 0 {
		p.DBLogFrequency = d.DBLogFrequency
	}
	if p.StorageDriver == "" {
		p.StorageDriver = d.StorageDriver
	}
	if p.StorageDSN == "" {
		p.StorageDSN = d.StorageDSN
	}
	return p
}

// SameIsolation reports whether two profiles would collide on the same
// backing store, mirroring db_same from the original: db_pass is
// deliberately excluded from the comparison.
func SameIsolation(a, b Profile) bool {
	return a.DBHost == b.DBHost && a.DBUser == b.DBUser && a.DBName == b.DBName
}
