package hand

import (
	"fmt"
	"time"
)

// Street names. Flop games use PREFLOP..RIVER, stud games ANTES..SEVENTH.
const (
	StreetPreflop = "PREFLOP"
	StreetFlop    = "FLOP"
	StreetTurn    = "TURN"
	StreetRiver   = "RIVER"

	StreetAntes   = "ANTES"
	StreetThird   = "THIRD"
	StreetFourth  = "FOURTH"
	StreetFifth   = "FIFTH"
	StreetSixth   = "SIXTH"
	StreetSeventh = "SEVENTH"
)

// Game bases.
const (
	BaseHold = "hold"
	BaseStud = "stud"
)

// HoldStreets and StudStreets are the canonical street orders per game base.
var HoldStreets = []string{StreetPreflop, StreetFlop, StreetTurn, StreetRiver}
var StudStreets = []string{StreetAntes, StreetThird, StreetFourth, StreetFifth, StreetSixth, StreetSeventh}

// StreetsForBase returns the canonical street order for a game base.
func StreetsForBase(base string) []string {
	if base == BaseStud {
		return StudStreets
	}
	return HoldStreets
}

// BettingIndex maps a street name to the 0-based betting round used by the
// per-player statistics (0 = preflop/third street). ANTES is part of round 0.
func BettingIndex(base string, street string) int {
	if base == BaseStud {
		switch street {
		case StreetAntes, StreetThird:
			return 0
		case StreetFourth:
			return 1
		case StreetFifth:
			return 2
		case StreetSixth:
			return 3
		case StreetSeventh:
			return 4
		}
		return -1
	}
	switch street {
	case StreetPreflop:
		return 0
	case StreetFlop:
		return 1
	case StreetTurn:
		return 2
	case StreetRiver:
		return 3
	}
	return -1
}

type ActionKind int

const (
	ActionPostAnte ActionKind = iota
	ActionPostSmallBlind
	ActionPostBigBlind
	ActionPostBoth
	ActionBringIn
	ActionBet
	ActionRaise
	ActionCall
	ActionCheck
	ActionFold
	ActionShow
	ActionCollect
)

func (k ActionKind) String() string {
	switch k {
	case ActionPostAnte:
		return "ante"
	case ActionPostSmallBlind:
		return "small blind"
	case ActionPostBigBlind:
		return "big blind"
	case ActionPostBoth:
		return "both blinds"
	case ActionBringIn:
		return "bring-in"
	case ActionBet:
		return "bets"
	case ActionRaise:
		return "raises"
	case ActionCall:
		return "calls"
	case ActionCheck:
		return "checks"
	case ActionFold:
		return "folds"
	case ActionShow:
		return "shows"
	case ActionCollect:
		return "collects"
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// IsAggressive reports whether the action is a bet or a raise.
func (k ActionKind) IsAggressive() bool {
	return k == ActionBet || k == ActionRaise
}

// IsPost reports whether the action is a forced post (not voluntary money).
func (k ActionKind) IsPost() bool {
	switch k {
	case ActionPostAnte, ActionPostSmallBlind, ActionPostBigBlind, ActionPostBoth, ActionBringIn:
		return true
	}
	return false
}

// Action is one discrete event in a hand. Amount is in cents and zero for
// non-monetary actions (check, fold, show).
type Action struct {
	Street string
	Player string
	Kind   ActionKind
	Amount int64
}

// Player is one occupied seat. StartCash is in cents.
type Player struct {
	Seat       int
	Name       string
	StartCash  int64
	HoleCards  []string
	ShownCards []string
}

// Street owns the slice of raw text it was segmented from. Streets that never
// happened (hand ended early) are simply not present in Hand.Streets.
type Street struct {
	Name string
	Text string
}

// GameType describes the game a hand was played under. Monetary fields are in
// cents to keep game-type identity stable across imports.
type GameType struct {
	SiteID     int
	Type       string // "ring" or "tour"
	Base       string // "hold" or "stud"
	Category   string // holdem, omahahi, studhi, razz, ...
	Limit      string // "nl", "pl", "fl"
	HiLo       string // "h", "l", "s"
	Currency   string // "USD", "EUR", "T$"
	SmallBlind int64
	BigBlind   int64
	SmallBet   int64
	BigBet     int64
}

// Hand is the canonical in-memory model of one played hand. It is built by a
// site extractor from raw hand-history text and consumed exactly once by the
// bulk importer.
type Hand struct {
	SiteID     int
	SiteHandNo string
	TableName  string
	MaxSeats   int
	GameType   *GameType
	StartTime  time.Time
	ButtonPos  int
	Hero       string
	RawText    string

	Streets   []Street
	Players   []Player
	Actions   []Action
	Board     map[string][]string // street name -> community cards
	Collected map[string]int64    // player name -> winnings in cents
}

func New(siteID int, gt *GameType, rawText string) *Hand {
	return &Hand{
		SiteID:    siteID,
		GameType:  gt,
		RawText:   rawText,
		MaxSeats:  6,
		Board:     make(map[string][]string),
		Collected: make(map[string]int64),
	}
}

// AddPlayer registers a seated player. Seat numbers need not be contiguous.
func (h *Hand) AddPlayer(seat int, name string, startCash int64) {
	h.Players = append(h.Players, Player{Seat: seat, Name: name, StartCash: startCash})
}

func (h *Hand) AddAction(street, player string, kind ActionKind, amount int64) {
	h.Actions = append(h.Actions, Action{Street: street, Player: player, Kind: kind, Amount: amount})
}

// SetCommunityCards records board cards for a street.
func (h *Hand) SetCommunityCards(street string, cards []string) {
	h.Board[street] = cards
}

// AddCollectPot records winnings for a player. A player can collect from more
// than one pot in the same hand.
func (h *Hand) AddCollectPot(player string, amount int64) {
	h.Collected[player] += amount
	h.AddAction("", player, ActionCollect, amount)
}

func (h *Hand) AddHoleCards(player string, cards []string) {
	for i := range h.Players {
		if h.Players[i].Name == player {
			h.Players[i].HoleCards = cards
			return
		}
	}
}

func (h *Hand) AddShownCards(player string, cards []string) {
	for i := range h.Players {
		if h.Players[i].Name == player {
			h.Players[i].ShownCards = cards
			return
		}
	}
}

// PlayerBySeat returns the player in the given seat, or nil.
func (h *Hand) PlayerBySeat(seat int) *Player {
	for i := range h.Players {
		if h.Players[i].Seat == seat {
			return &h.Players[i]
		}
	}
	return nil
}

// HasStreet reports whether the street was present in the hand text.
func (h *Hand) HasStreet(name string) bool {
	for _, s := range h.Streets {
		if s.Name == name {
			return true
		}
	}
	return false
}

// StreetText returns the raw text slice of the named street.
func (h *Hand) StreetText(name string) (string, bool) {
	for _, s := range h.Streets {
		if s.Name == name {
			return s.Text, true
		}
	}
	return "", false
}

// StreetActions returns the actions that happened on the named street, in
// original order.
func (h *Hand) StreetActions(name string) []Action {
	var out []Action
	for _, a := range h.Actions {
		if a.Street == name {
			out = append(out, a)
		}
	}
	return out
}

// BoardCards returns the full board in street order.
func (h *Hand) BoardCards() []string {
	var out []string
	for _, s := range StreetsForBase(h.GameType.Base) {
		out = append(out, h.Board[s]...)
	}
	return out
}

// CheckStreetOrder verifies that h.Streets follows the canonical order for the
// hand's game base. Absent streets are fine; out-of-order streets are not.
func (h *Hand) CheckStreetOrder() error {
	canonical := StreetsForBase(h.GameType.Base)
	pos := -1
	for _, s := range h.Streets {
		found := -1
		for i, name := range canonical {
			if name == s.Name {
				found = i
				break
			}
		}
		if found < 0 {
			return fmt.Errorf("unknown street %s for base %s", s.Name, h.GameType.Base)
		}
		if found <= pos {
			return fmt.Errorf("street %s out of order", s.Name)
		}
		pos = found
	}
	return nil
}
