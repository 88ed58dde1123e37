package board

import (
	"github.com/Fsmount/wamble/internal/chess"
	"github.com/Fsmount/wamble/internal/player"
)

// Payout is one contributor's share of a board's pot, ready for the
// persistence intent buffer's RecordPayout intent.
type Payout struct {
	Token  player.Token
	Points float64
}

// ComputePayouts distributes maxPot among b's Contributions per spec
// §8's scoring scenario: for a decisive result, the full pot is split
// proportionally to move count among contributors on the winning side
// only (losing-side contributors score zero). For a draw, the pot is
// split into two halves, one per side, each distributed proportionally
// among that side's contributors. Either way, a contributor who moved
// on both sides of the board has their payout halved unconditionally
// (original_source/src/scoring.c's halving check runs regardless of
// result), so no player can inflate their share by also playing the
// other side.
func ComputePayouts(b *Board, maxPot float64) []Payout {
	switch b.Result {
	case chess.WhiteWins:
		return halveDualSide(proportional(b.Contributions, chess.White, maxPot), b.Contributions, chess.Black)
	case chess.BlackWins:
		return halveDualSide(proportional(b.Contributions, chess.Black, maxPot), b.Contributions, chess.White)
	case chess.Draw:
		white := proportional(b.Contributions, chess.White, maxPot/2)
		black := proportional(b.Contributions, chess.Black, maxPot/2)
		return mergeHalvingDualSide(white, black)
	default:
		return nil
	}
}

// halveDualSide halves each payout whose token also contributed moves
// on otherSide, the decisive-result counterpart to mergeHalvingDualSide.
func halveDualSide(payouts []Payout, contribs []Contribution, otherSide chess.Color) []Payout {
	dual := make(map[player.Token]bool)
	for _, c := range contribs {
		if c.Side == otherSide && c.MoveCount > 0 {
			dual[c.Token] = true
		}
	}
	out := make([]Payout, len(payouts))
	for i, p := range payouts {
		if dual[p.Token] {
			p.Points /= 2
		}
		out[i] = p
	}
	return out
}

func proportional(contribs []Contribution, side chess.Color, pot float64) []Payout {
	total := 0
	for _, c := range contribs {
		if c.Side == side {
			total += c.MoveCount
		}
	}
	if total == 0 {
		return nil
	}
	var out []Payout
	for _, c := range contribs {
		if c.Side != side {
			continue
		}
		out = append(out, Payout{Token: c.Token, Points: pot * float64(c.MoveCount) / float64(total)})
	}
	return out
}

// mergeHalvingDualSide combines per-side payouts, halving the combined
// total for any token present in both slices (spec §8's "dual-side
// contributors have their total halved" rule).
func mergeHalvingDualSide(white, black []Payout) []Payout {
	totals := make(map[player.Token]float64)
	dual := make(map[player.Token]bool)
	seen := make(map[player.Token]bool)
	for _, p := range white {
		totals[p.Token] += p.Points
		seen[p.Token] = true
	}
	for _, p := range black {
		if seen[p.Token] {
			dual[p.Token] = true
		}
		totals[p.Token] += p.Points
	}
	order := make([]player.Token, 0, len(totals))
	added := make(map[player.Token]bool)
	for _, p := range white {
		if !added[p.Token] {
			order = append(order, p.Token)
			added[p.Token] = true
		}
	}
	for _, p := range black {
		if !added[p.Token] {
			order = append(order, p.Token)
			added[p.Token] = true
		}
	}
	out := make([]Payout, 0, len(order))
	for _, tok := range order {
		pts := totals[tok]
		if dual[tok] {
			pts /= 2
		}
		out = append(out, Payout{Token: tok, Points: pts})
	}
	return out
}
