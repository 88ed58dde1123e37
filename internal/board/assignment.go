package board

import (
	"sort"

	"github.com/Fsmount/wamble/internal/config"
)

// Phase classifies a board's game stage from its fullmove number, per
// spec §4.2.
type Phase uint8

const (
	PhaseEarly Phase = iota
	PhaseMid
	PhaseEnd
)

// Phase thresholds on fullmove_number. Not named numerically by spec
// or the retrieved original_source excerpt (only the constant names
// GAME_PHASE_EARLY_THRESHOLD/GAME_PHASE_MID_THRESHOLD appear, without
// their values in the retrieved slice of spectator_manager.c); chosen
// to match common chess-phase boundaries and documented as an Open
// Question resolution in DESIGN.md.
const (
	EarlyPhaseThreshold = 10
	MidPhaseThreshold   = 30
)

func PhaseOf(fullmove int) Phase {
	switch {
	case fullmove < EarlyPhaseThreshold:
		return PhaseEarly
	case fullmove < MidPhaseThreshold:
		return PhaseMid
	default:
		return PhaseEnd
	}
}

// NewPlayerGamesThreshold is N_NEW from spec §4.2: players below this
// games_played count are the "new" class, at or above are
// "experienced". Not numerically specified; chosen as a round value
// and recorded as an Open Question resolution in DESIGN.md.
const NewPlayerGamesThreshold = 10

// Multiplier looks up the phase multiplier for a player class from cfg,
// the 2x3 table spec §4.2 describes.
func Multiplier(cfg config.Profile, gamesPlayed int, phase Phase) float64 {
	row := cfg.NewPlayerMult
	if gamesPlayed >= NewPlayerGamesThreshold {
		row = cfg.ExperiencedPlayerMult
	}
	switch phase {
	case PhaseEarly:
		return row.Early
	case PhaseMid:
		return row.Mid
	default:
		return row.End
	}
}

// candidate is one board considered for assignment, carrying the
// sort keys spec §4.2 specifies: multiplier desc, then
// last_assignment_time asc.
type candidate struct {
	board *Board
	mult  float64
}

// selectBoard sorts candidates by (multiplier desc, last_assignment_time
// asc) and returns the top one, or nil if cands is empty.
func selectBoard(cands []candidate) *Board {
	if len(cands) == 0 {
		return nil
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].mult != cands[j].mult {
			return cands[i].mult > cands[j].mult
		}
		return cands[i].board.LastAssignmentTime.Before(cands[j].board.LastAssignmentTime)
	})
	return cands[0].board
}
