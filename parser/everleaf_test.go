package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyager.com/tracker/hand"
)

const everleafNLHand = `Everleaf Gaming Game #75065769
***** Hand history for game #75065769 *****
Blinds $0.50/$1 NL Hold'em - 2009/02/21 - 11:21:57
Table Casino Lyon Vert 58
Seat 3 is the button
Total number of players: 3
Seat 1: bigslick ( $ 100 USD )
Seat 2: Gerald29 ( $ 62.25 USD )
Seat 3: fredfish ( $ 7.05 USD )
bigslick: posts small blind [$ 0.50 USD]
Gerald29: posts big blind [$ 1 USD]
** Dealing down cards **
Dealt to bigslick [ Ah, Kh ]
fredfish folds
bigslick raises [$ 2.50 USD]
Gerald29 calls [$ 2 USD]
** Dealing Flop ** [ 2c, 7d, Kd ]
bigslick: bets [$ 4 USD]
Gerald29 folds
bigslick wins $ 6.70 USD from main pot
`

func TestDetectGameType(t *testing.T) {
	e := NewEverleaf(1)
	gt, ok := e.DetectGameType("Blinds $0.05/$0.10 NL Hold'em - 2009/02/21 - 11:21:57")
	require.True(t, ok)
	assert.Equal(t, "ring", gt.Type)
	assert.Equal(t, hand.BaseHold, gt.Base)
	assert.Equal(t, "holdem", gt.Category)
	assert.Equal(t, "nl", gt.Limit)
	assert.Equal(t, "USD", gt.Currency)
	assert.Equal(t, int64(5), gt.SmallBlind)
	assert.Equal(t, int64(10), gt.BigBlind)
}

func TestDetectGameTypeFixedLimit(t *testing.T) {
	e := NewEverleaf(1)
	gt, ok := e.DetectGameType("Blinds $0.50/$1 7 Card Stud - 2009/02/21 - 11:21:57")
	require.True(t, ok)
	assert.Equal(t, hand.BaseStud, gt.Base)
	assert.Equal(t, "studhi", gt.Category)
	assert.Equal(t, "fl", gt.Limit)
	// Fixed limit headers carry bets, not blinds.
	assert.Equal(t, int64(50), gt.SmallBet)
	assert.Equal(t, int64(100), gt.BigBet)
	assert.Equal(t, int64(0), gt.SmallBlind)
}

func TestDetectGameTypeUnknownGame(t *testing.T) {
	e := NewEverleaf(1)
	_, ok := e.DetectGameType("Blinds $0.50/$1 NL Badugi - 2009/02/21 - 11:21:57")
	assert.False(t, ok)
}

func TestProcessHandEverleaf(t *testing.T) {
	e := NewEverleaf(1)
	h, err := ProcessHand(e, everleafNLHand)
	require.NoError(t, err)

	assert.Equal(t, "75065769", h.SiteHandNo)
	assert.Equal(t, "Casino Lyon Vert 58", h.TableName)
	assert.Equal(t, time.Date(2009, 2, 21, 11, 21, 57, 0, time.UTC), h.StartTime)
	assert.Equal(t, 3, h.ButtonPos)
	assert.Equal(t, 6, h.MaxSeats)
	assert.Equal(t, "bigslick", h.Hero)

	require.Len(t, h.Players, 3)
	p := h.PlayerBySeat(2)
	require.NotNil(t, p)
	assert.Equal(t, "Gerald29", p.Name)
	assert.Equal(t, int64(6225), p.StartCash)

	require.True(t, h.HasStreet(hand.StreetFlop))
	assert.False(t, h.HasStreet(hand.StreetTurn))
	assert.Equal(t, []string{"2c", "7d", "Kd"}, h.Board[hand.StreetFlop])

	hero := h.PlayerBySeat(1)
	require.NotNil(t, hero)
	assert.Equal(t, []string{"Ah", "Kh"}, hero.HoleCards)

	preflop := h.StreetActions(hand.StreetPreflop)
	kinds := make([]hand.ActionKind, 0, len(preflop))
	for _, a := range preflop {
		kinds = append(kinds, a.Kind)
	}
	assert.Equal(t, []hand.ActionKind{
		hand.ActionPostSmallBlind, hand.ActionPostBigBlind,
		hand.ActionFold, hand.ActionRaise, hand.ActionCall,
	}, kinds)

	flop := h.StreetActions(hand.StreetFlop)
	require.Len(t, flop, 2)
	assert.Equal(t, hand.ActionBet, flop[0].Kind)
	assert.Equal(t, int64(400), flop[0].Amount)
	assert.Equal(t, hand.ActionFold, flop[1].Kind)

	assert.Equal(t, int64(670), h.Collected["bigslick"])
}

func TestProcessHandBadHeader(t *testing.T) {
	e := NewEverleaf(1)
	_, err := ProcessHand(e, "not a poker hand at all")
	assert.Equal(t, ErrUnsupportedGame, err)
}

func TestProcessHandMissingHandInfo(t *testing.T) {
	e := NewEverleaf(1)
	_, err := ProcessHand(e, "Blinds $0.50/$1 NL Hold'em - 2009/02/21 - 11:21:57")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "Everleaf", parseErr.Site)
}

func TestPlayerPatternsRecompileOnNameSetChange(t *testing.T) {
	e := NewEverleaf(1)
	gt := &hand.GameType{Base: hand.BaseHold}

	h1 := hand.New(1, gt, "")
	h1.AddPlayer(1, "alice", 1000)
	h1.AddPlayer(2, "bob", 1000)
	require.NoError(t, e.ReadPlayerStacks(h1))
	first := e.patterns.action

	// Same name set, different order of discovery: no recompile.
	h2 := hand.New(1, gt, "")
	h2.AddPlayer(2, "bob", 500)
	h2.AddPlayer(1, "alice", 500)
	require.NoError(t, e.ReadPlayerStacks(h2))
	assert.Same(t, first, e.patterns.action)

	// New player joins: patterns are rebuilt.
	h3 := hand.New(1, gt, "")
	h3.AddPlayer(1, "alice", 500)
	h3.AddPlayer(2, "bob", 500)
	h3.AddPlayer(3, "carol", 500)
	require.NoError(t, e.ReadPlayerStacks(h3))
	assert.NotSame(t, first, e.patterns.action)
}

func TestPlayerNamesAreQuoted(t *testing.T) {
	e := NewEverleaf(1)
	h := hand.New(1, &hand.GameType{Base: hand.BaseHold}, "")
	h.AddPlayer(1, "a.b*c", 1000)
	h.AddPlayer(2, "plain", 1000)
	require.NoError(t, e.ReadPlayerStacks(h))

	m := matchNamed(e.patterns.action, "a.b*c folds")
	require.NotNil(t, m)
	assert.Equal(t, "a.b*c", m["PNAME"])

	// The dot must not match an arbitrary character.
	assert.Nil(t, matchNamed(e.patterns.action, "aXb*c folds"))
}

func TestSplitHands(t *testing.T) {
	text := "hand one line 1\nhand one line 2\n\n\nhand two\n\n   \n"
	hands := SplitHands(text)
	require.Len(t, hands, 2)
	assert.Contains(t, hands[0], "hand one line 2")
	assert.Equal(t, "hand two", hands[1][:8])
}

func TestParseCents(t *testing.T) {
	assert.Equal(t, int64(5), parseCents("0.05"))
	assert.Equal(t, int64(100), parseCents("1"))
	assert.Equal(t, int64(6225), parseCents("62.25"))
	assert.Equal(t, int64(250), parseCents("2.5"))
}
