package hand

import (
	"sort"
	"strconv"
)

// PlayerStats holds the per-player statistics derived from one hand's action
// sequence. Indexed arrays run over betting rounds: 0 = preflop (or third
// street), 1..4 = later rounds. These feed both the HandsPlayers rows and the
// HudCache counter deltas.
type PlayerStats struct {
	SeatNo    int
	StartCash int64
	Position  string // "B" big blind, "S" small blind, "0" button, "1" cutoff, ...
	Cards     [7]string

	Winnings    int64
	Rake        int64
	TotalProfit int64

	VPIP            bool // voluntarily put money in preflop
	ThreeBetChance  bool
	ThreeBetDone    bool
	SawShowdown     bool
	WonAtShowdown   bool
	WonWhenSawFlop  bool
	StealChance     bool
	StealAttempted  bool
	FoldBBToStealChance bool
	FoldedBBToSteal     bool
	FoldSBToStealChance bool
	FoldedSBToSteal     bool

	Seen  [5]bool // Seen[0] is always true for dealt-in players
	Aggr  [5]bool
	Calls [5]int
	Bets  [5]int

	CBChance       [5]bool
	CBDone         [5]bool
	FoldToCBChance [5]bool
	FoldToCBDone   [5]bool

	OtherRaised       [5]bool
	FoldToOtherRaised [5]bool

	CheckCallRaiseChance [5]bool
	CheckCallRaiseDone   [5]bool
}

// Derived bundles the per-player stats with the hand-level aggregates that go
// into the Hands row.
type Derived struct {
	Players map[string]*PlayerStats

	PlayersVPI       int
	PlayersAtStreet  [5]int
	PlayersAtShowdown int
}

const neverFolded = 1 << 30

// Derive computes all per-player statistics for a fully extracted hand.
// It is a pure function of the hand's players, actions and streets.
func Derive(h *Hand) *Derived {
	d := &Derived{Players: make(map[string]*PlayerStats, len(h.Players))}
	for _, p := range h.Players {
		ps := &PlayerStats{SeatNo: p.Seat, StartCash: p.StartCash}
		ps.Seen[0] = true
		cards := p.HoleCards
		if len(cards) == 0 {
			cards = p.ShownCards
		}
		for i, c := range cards {
			if i >= len(ps.Cards) {
				break
			}
			ps.Cards[i] = c
		}
		d.Players[p.Name] = ps
	}

	assignPositions(h, d)

	rounds := groupRounds(h)
	lastRound := lastDealtRound(h)
	foldRound := make(map[string]int, len(d.Players))
	for name := range d.Players {
		foldRound[name] = neverFolded
	}
	for n, actions := range rounds {
		for _, a := range actions {
			if a.Kind == ActionFold && foldRound[a.Player] == neverFolded {
				foldRound[a.Player] = n
			}
		}
	}

	for name, ps := range d.Players {
		for n := 1; n <= lastRound; n++ {
			if roundDealt(h, n) && foldRound[name] >= n {
				ps.Seen[n] = true
			}
		}
	}

	derivePreflop(h, d, rounds[0])
	for n := 1; n <= 4; n++ {
		deriveRound(d, rounds[n], n)
	}
	deriveContinuationBets(h, d, rounds, foldRound, lastRound)
	if h.GameType.Base == BaseHold {
		deriveSteals(d, rounds[0])
	}

	// Showdown: two or more players never folded.
	var survivors []string
	for name := range d.Players {
		if foldRound[name] == neverFolded {
			survivors = append(survivors, name)
		}
	}
	if len(survivors) >= 2 {
		for _, name := range survivors {
			d.Players[name].SawShowdown = true
		}
	}

	deriveMoney(h, d)

	for _, ps := range d.Players {
		if ps.VPIP {
			d.PlayersVPI++
		}
		for n := 1; n <= 4; n++ {
			if ps.Seen[n] {
				d.PlayersAtStreet[n]++
			}
		}
		if ps.SawShowdown {
			d.PlayersAtShowdown++
		}
	}
	return d
}

// assignPositions gives each player a position label. For flop games positions
// count back from the button: 0 button, 1 cutoff, and so on, with the blinds
// labeled S and B. Stud games have no button; players are numbered in seat
// order.
func assignPositions(h *Hand, d *Derived) {
	seats := make([]int, 0, len(h.Players))
	for _, p := range h.Players {
		seats = append(seats, p.Seat)
	}
	sort.Ints(seats)

	if h.GameType.Base != BaseHold || h.ButtonPos == 0 {
		for i, seat := range seats {
			if p := h.PlayerBySeat(seat); p != nil {
				d.Players[p.Name].Position = strconv.Itoa(i)
			}
		}
		return
	}

	sbName, bbName := "", ""
	for _, a := range h.Actions {
		switch a.Kind {
		case ActionPostSmallBlind:
			if sbName == "" {
				sbName = a.Player
			}
		case ActionPostBigBlind, ActionPostBoth:
			if bbName == "" {
				bbName = a.Player
			}
		}
	}

	// Walk seats counterclockwise starting at the button.
	btnIdx := 0
	for i, seat := range seats {
		if seat == h.ButtonPos {
			btnIdx = i
			break
		}
	}
	pos := 0
	for i := 0; i < len(seats); i++ {
		seat := seats[(btnIdx-i+len(seats))%len(seats)]
		p := h.PlayerBySeat(seat)
		if p == nil {
			continue
		}
		switch p.Name {
		case sbName:
			d.Players[p.Name].Position = "S"
		case bbName:
			d.Players[p.Name].Position = "B"
		default:
			d.Players[p.Name].Position = strconv.Itoa(pos)
			pos++
		}
	}
}

// groupRounds splits the hand's actions into betting rounds, dropping
// showdown/collect bookkeeping actions.
func groupRounds(h *Hand) [5][]Action {
	var rounds [5][]Action
	for _, a := range h.Actions {
		if a.Kind == ActionShow || a.Kind == ActionCollect {
			continue
		}
		n := BettingIndex(h.GameType.Base, a.Street)
		if n >= 0 && n < len(rounds) {
			rounds[n] = append(rounds[n], a)
		}
	}
	return rounds
}

func roundDealt(h *Hand, n int) bool {
	for _, s := range h.Streets {
		if BettingIndex(h.GameType.Base, s.Name) == n {
			return true
		}
	}
	return false
}

func lastDealtRound(h *Hand) int {
	last := 0
	for _, s := range h.Streets {
		if n := BettingIndex(h.GameType.Base, s.Name); n > last {
			last = n
		}
	}
	return last
}

// derivePreflop handles VPIP, preflop aggression and 3-bet stats.
func derivePreflop(h *Hand, d *Derived, actions []Action) {
	raises := 0
	for _, a := range actions {
		ps := d.Players[a.Player]
		if ps == nil {
			continue
		}
		if a.Kind.IsPost() {
			continue
		}
		if raises == 1 {
			ps.ThreeBetChance = true
			if a.Kind.IsAggressive() {
				ps.ThreeBetDone = true
			}
		}
		switch a.Kind {
		case ActionCall:
			ps.VPIP = true
			ps.Calls[0]++
		case ActionBet:
			ps.VPIP = true
			ps.Aggr[0] = true
			ps.Bets[0]++
			raises++
		case ActionRaise:
			ps.VPIP = true
			ps.Aggr[0] = true
			raises++
		}
	}
}

// deriveRound handles postflop aggression, calls/bets, raised-pot reactions
// and check-call-raise stats for one betting round.
func deriveRound(d *Derived, actions []Action, n int) {
	checked := make(map[string]bool)
	facingBet := make(map[string]bool)     // raised/bet while player was in
	facingAfterCheck := make(map[string]bool)

	for _, a := range actions {
		ps := d.Players[a.Player]
		if ps == nil {
			continue
		}
		if facingBet[a.Player] {
			ps.OtherRaised[n] = true
			if a.Kind == ActionFold {
				ps.FoldToOtherRaised[n] = true
			}
			facingBet[a.Player] = false
		}
		if facingAfterCheck[a.Player] {
			ps.CheckCallRaiseChance[n] = true
			if a.Kind == ActionCall || a.Kind == ActionRaise {
				ps.CheckCallRaiseDone[n] = true
			}
			facingAfterCheck[a.Player] = false
		}
		switch a.Kind {
		case ActionCheck:
			checked[a.Player] = true
		case ActionCall:
			ps.Calls[n]++
		case ActionBet, ActionRaise:
			ps.Aggr[n] = true
			if a.Kind == ActionBet {
				ps.Bets[n]++
			}
			for name := range d.Players {
				if name != a.Player {
					facingBet[name] = true
					if checked[name] {
						facingAfterCheck[name] = true
					}
				}
			}
		}
	}
}

// deriveContinuationBets follows the preflop aggressor across later rounds.
// The chain requires the previous round's continuation bet to have been made.
func deriveContinuationBets(h *Hand, d *Derived, rounds [5][]Action, foldRound map[string]int, lastRound int) {
	aggressor := ""
	for _, a := range rounds[0] {
		if a.Kind.IsAggressive() {
			aggressor = a.Player
		}
	}
	if aggressor == "" {
		return
	}
	for n := 1; n <= lastRound; n++ {
		ps := d.Players[aggressor]
		if ps == nil || !ps.Seen[n] {
			return
		}
		// No continuation bet possible if someone bets into the aggressor.
		chance := true
		done := false
		var cbetAt = -1
		for i, a := range rounds[n] {
			if a.Player == aggressor {
				if a.Kind == ActionBet {
					done = true
					cbetAt = i
				}
				break
			}
			if a.Kind.IsAggressive() {
				chance = false
				break
			}
		}
		if !chance {
			return
		}
		ps.CBChance[n] = true
		if !done {
			return
		}
		ps.CBDone[n] = true
		for _, a := range rounds[n][cbetAt+1:] {
			other := d.Players[a.Player]
			if other == nil || a.Player == aggressor {
				continue
			}
			other.FoldToCBChance[n] = true
			if a.Kind == ActionFold {
				other.FoldToCBDone[n] = true
			}
		}
	}
}

// deriveSteals covers open-raise steal attempts from the cutoff, button and
// small blind, and the blinds' fold-to-steal reactions.
func deriveSteals(d *Derived, actions []Action) {
	stealPositions := map[string]bool{"1": true, "0": true, "S": true}
	opened := false
	stolenBy := ""
	for _, a := range actions {
		if a.Kind.IsPost() {
			continue
		}
		ps := d.Players[a.Player]
		if ps == nil {
			continue
		}
		if stolenBy == "" {
			if !opened && stealPositions[ps.Position] {
				ps.StealChance = true
				if a.Kind.IsAggressive() {
					ps.StealAttempted = true
					stolenBy = a.Player
				}
			}
			if a.Kind == ActionCall || a.Kind.IsAggressive() {
				opened = true
			}
			continue
		}
		// Facing a steal raise.
		switch ps.Position {
		case "S":
			ps.FoldSBToStealChance = true
			if a.Kind == ActionFold {
				ps.FoldedSBToSteal = true
			}
		case "B":
			ps.FoldBBToStealChance = true
			if a.Kind == ActionFold {
				ps.FoldedBBToSteal = true
			}
		}
		if a.Kind == ActionCall || a.Kind.IsAggressive() {
			// Steal got action; later blinds no longer face a clean steal.
			return
		}
	}
}

// deriveMoney computes winnings, invested amounts, profit and rake shares.
func deriveMoney(h *Hand, d *Derived) {
	invested := make(map[string]int64)
	var totalInvested, totalCollected int64
	for _, a := range h.Actions {
		if a.Kind == ActionShow || a.Kind == ActionCollect {
			continue
		}
		invested[a.Player] += a.Amount
		totalInvested += a.Amount
	}
	var winners []string
	for name, amount := range h.Collected {
		totalCollected += amount
		winners = append(winners, name)
	}
	rake := totalInvested - totalCollected
	if rake < 0 {
		rake = 0
	}
	for name, ps := range d.Players {
		ps.Winnings = h.Collected[name]
		ps.TotalProfit = ps.Winnings - invested[name]
		if ps.Winnings > 0 {
			if len(winners) > 0 {
				ps.Rake = rake / int64(len(winners))
			}
			if ps.SawShowdown {
				ps.WonAtShowdown = true
			}
			if ps.Seen[1] {
				ps.WonWhenSawFlop = true
			}
		}
	}
}
