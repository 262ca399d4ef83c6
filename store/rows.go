package store

import (
	"time"

	"voyager.com/tracker/hand"
)

// handsCols are the insertable columns of the Hands table, in insert order.
var handsCols = []string{
	"tableName", "gametypeId", "siteHandNo", "handStart", "importTime",
	"seats", "maxSeats", "playersVpi",
	"boardcard1", "boardcard2", "boardcard3", "boardcard4", "boardcard5",
	"playersAtStreet1", "playersAtStreet2", "playersAtStreet3", "playersAtStreet4",
	"playersAtShowdown",
}

// HandRow is one row of the Hands table.
type HandRow struct {
	TableName  string    `db:"tableName"`
	GametypeID uint64    `db:"gametypeId"`
	SiteHandNo string    `db:"siteHandNo"`
	HandStart  time.Time `db:"handStart"`
	ImportTime time.Time `db:"importTime"`
	Seats      int       `db:"seats"`
	MaxSeats   int       `db:"maxSeats"`
	PlayersVPI int       `db:"playersVpi"`

	BoardCard1 string `db:"boardcard1"`
	BoardCard2 string `db:"boardcard2"`
	BoardCard3 string `db:"boardcard3"`
	BoardCard4 string `db:"boardcard4"`
	BoardCard5 string `db:"boardcard5"`

	PlayersAtStreet1  int `db:"playersAtStreet1"`
	PlayersAtStreet2  int `db:"playersAtStreet2"`
	PlayersAtStreet3  int `db:"playersAtStreet3"`
	PlayersAtStreet4  int `db:"playersAtStreet4"`
	PlayersAtShowdown int `db:"playersAtShowdown"`
}

// NewHandRow flattens a canonical hand and its derived aggregates into the
// Hands row shape.
func NewHandRow(h *hand.Hand, gameTypeID uint64, d *hand.Derived) *HandRow {
	row := &HandRow{
		TableName:         h.TableName,
		GametypeID:        gameTypeID,
		SiteHandNo:        h.SiteHandNo,
		HandStart:         h.StartTime,
		ImportTime:        time.Now().UTC(),
		Seats:             len(h.Players),
		MaxSeats:          h.MaxSeats,
		PlayersVPI:        d.PlayersVPI,
		PlayersAtStreet1:  d.PlayersAtStreet[1],
		PlayersAtStreet2:  d.PlayersAtStreet[2],
		PlayersAtStreet3:  d.PlayersAtStreet[3],
		PlayersAtStreet4:  d.PlayersAtStreet[4],
		PlayersAtShowdown: d.PlayersAtShowdown,
	}
	board := h.BoardCards()
	cards := []*string{&row.BoardCard1, &row.BoardCard2, &row.BoardCard3, &row.BoardCard4, &row.BoardCard5}
	for i, c := range board {
		if i >= len(cards) {
			break
		}
		*cards[i] = c
	}
	return row
}

// handsPlayersCols are the insertable columns of the HandsPlayers table.
var handsPlayersCols = []string{
	"handId", "playerId", "startCash", "seatNo", "position", "tourneyTypeId",
	"card1", "card2", "card3", "card4", "card5", "card6", "card7",
	"winnings", "rake", "totalProfit",
	"street0VPI", "street0Aggr", "street0_3BChance", "street0_3BDone",
	"street0Calls", "street0Bets",
	"street1Seen", "street2Seen", "street3Seen", "street4Seen",
	"sawShowdown", "wonAtSD", "wonWhenSeenStreet1",
	"street1Aggr", "street2Aggr", "street3Aggr", "street4Aggr",
	"street1Calls", "street2Calls", "street3Calls", "street4Calls",
	"street1Bets", "street2Bets", "street3Bets", "street4Bets",
	"street1CBChance", "street2CBChance", "street3CBChance", "street4CBChance",
	"street1CBDone", "street2CBDone", "street3CBDone", "street4CBDone",
	"foldToStreet1CBChance", "foldToStreet2CBChance", "foldToStreet3CBChance", "foldToStreet4CBChance",
	"foldToStreet1CBDone", "foldToStreet2CBDone", "foldToStreet3CBDone", "foldToStreet4CBDone",
	"otherRaisedStreet1", "otherRaisedStreet2", "otherRaisedStreet3", "otherRaisedStreet4",
	"foldToOtherRaisedStreet1", "foldToOtherRaisedStreet2", "foldToOtherRaisedStreet3", "foldToOtherRaisedStreet4",
	"stealAttemptChance", "stealAttempted",
	"foldBbToStealChance", "foldedBbToSteal", "foldSbToStealChance", "foldedSbToSteal",
	"street1CheckCallRaiseChance", "street2CheckCallRaiseChance", "street3CheckCallRaiseChance", "street4CheckCallRaiseChance",
	"street1CheckCallRaiseDone", "street2CheckCallRaiseDone", "street3CheckCallRaiseDone", "street4CheckCallRaiseDone",
}

// HandPlayerRow is one row of the HandsPlayers table. Stat flags are stored
// as 0/1 integers so the hud cache rebuild can aggregate them with plain SUMs
// on any backend.
type HandPlayerRow struct {
	HandID        uint64 `db:"handId"`
	PlayerID      uint64 `db:"playerId"`
	StartCash     int64  `db:"startCash"`
	SeatNo        int    `db:"seatNo"`
	Position      string `db:"position"`
	TourneyTypeID int    `db:"tourneyTypeId"`

	Card1 string `db:"card1"`
	Card2 string `db:"card2"`
	Card3 string `db:"card3"`
	Card4 string `db:"card4"`
	Card5 string `db:"card5"`
	Card6 string `db:"card6"`
	Card7 string `db:"card7"`

	Winnings    int64 `db:"winnings"`
	Rake        int64 `db:"rake"`
	TotalProfit int64 `db:"totalProfit"`

	Street0VPI      int `db:"street0VPI"`
	Street0Aggr     int `db:"street0Aggr"`
	Street03BChance int `db:"street0_3BChance"`
	Street03BDone   int `db:"street0_3BDone"`
	Street0Calls    int `db:"street0Calls"`
	Street0Bets     int `db:"street0Bets"`

	Street1Seen int `db:"street1Seen"`
	Street2Seen int `db:"street2Seen"`
	Street3Seen int `db:"street3Seen"`
	Street4Seen int `db:"street4Seen"`

	SawShowdown        int `db:"sawShowdown"`
	WonAtSD            int `db:"wonAtSD"`
	WonWhenSeenStreet1 int `db:"wonWhenSeenStreet1"`

	Street1Aggr int `db:"street1Aggr"`
	Street2Aggr int `db:"street2Aggr"`
	Street3Aggr int `db:"street3Aggr"`
	Street4Aggr int `db:"street4Aggr"`

	Street1Calls int `db:"street1Calls"`
	Street2Calls int `db:"street2Calls"`
	Street3Calls int `db:"street3Calls"`
	Street4Calls int `db:"street4Calls"`

	Street1Bets int `db:"street1Bets"`
	Street2Bets int `db:"street2Bets"`
	Street3Bets int `db:"street3Bets"`
	Street4Bets int `db:"street4Bets"`

	Street1CBChance int `db:"street1CBChance"`
	Street2CBChance int `db:"street2CBChance"`
	Street3CBChance int `db:"street3CBChance"`
	Street4CBChance int `db:"street4CBChance"`

	Street1CBDone int `db:"street1CBDone"`
	Street2CBDone int `db:"street2CBDone"`
	Street3CBDone int `db:"street3CBDone"`
	Street4CBDone int `db:"street4CBDone"`

	FoldToStreet1CBChance int `db:"foldToStreet1CBChance"`
	FoldToStreet2CBChance int `db:"foldToStreet2CBChance"`
	FoldToStreet3CBChance int `db:"foldToStreet3CBChance"`
	FoldToStreet4CBChance int `db:"foldToStreet4CBChance"`

	FoldToStreet1CBDone int `db:"foldToStreet1CBDone"`
	FoldToStreet2CBDone int `db:"foldToStreet2CBDone"`
	FoldToStreet3CBDone int `db:"foldToStreet3CBDone"`
	FoldToStreet4CBDone int `db:"foldToStreet4CBDone"`

	OtherRaisedStreet1 int `db:"otherRaisedStreet1"`
	OtherRaisedStreet2 int `db:"otherRaisedStreet2"`
	OtherRaisedStreet3 int `db:"otherRaisedStreet3"`
	OtherRaisedStreet4 int `db:"otherRaisedStreet4"`

	FoldToOtherRaisedStreet1 int `db:"foldToOtherRaisedStreet1"`
	FoldToOtherRaisedStreet2 int `db:"foldToOtherRaisedStreet2"`
	FoldToOtherRaisedStreet3 int `db:"foldToOtherRaisedStreet3"`
	FoldToOtherRaisedStreet4 int `db:"foldToOtherRaisedStreet4"`

	StealAttemptChance  int `db:"stealAttemptChance"`
	StealAttempted      int `db:"stealAttempted"`
	FoldBbToStealChance int `db:"foldBbToStealChance"`
	FoldedBbToSteal     int `db:"foldedBbToSteal"`
	FoldSbToStealChance int `db:"foldSbToStealChance"`
	FoldedSbToSteal     int `db:"foldedSbToSteal"`

	Street1CheckCallRaiseChance int `db:"street1CheckCallRaiseChance"`
	Street2CheckCallRaiseChance int `db:"street2CheckCallRaiseChance"`
	Street3CheckCallRaiseChance int `db:"street3CheckCallRaiseChance"`
	Street4CheckCallRaiseChance int `db:"street4CheckCallRaiseChance"`

	Street1CheckCallRaiseDone int `db:"street1CheckCallRaiseDone"`
	Street2CheckCallRaiseDone int `db:"street2CheckCallRaiseDone"`
	Street3CheckCallRaiseDone int `db:"street3CheckCallRaiseDone"`
	Street4CheckCallRaiseDone int `db:"street4CheckCallRaiseDone"`
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// NewHandPlayerRow flattens one player's derived stats into the HandsPlayers
// row shape.
func NewHandPlayerRow(handID, playerID uint64, ps *hand.PlayerStats) HandPlayerRow {
	row := HandPlayerRow{
		HandID:    handID,
		PlayerID:  playerID,
		StartCash: ps.StartCash,
		SeatNo:    ps.SeatNo,
		Position:  ps.Position,

		Winnings:    ps.Winnings,
		Rake:        ps.Rake,
		TotalProfit: ps.TotalProfit,

		Street0VPI:      b2i(ps.VPIP),
		Street0Aggr:     b2i(ps.Aggr[0]),
		Street03BChance: b2i(ps.ThreeBetChance),
		Street03BDone:   b2i(ps.ThreeBetDone),
		Street0Calls:    ps.Calls[0],
		Street0Bets:     ps.Bets[0],

		SawShowdown:        b2i(ps.SawShowdown),
		WonAtSD:            b2i(ps.WonAtShowdown),
		WonWhenSeenStreet1: b2i(ps.WonWhenSawFlop),

		StealAttemptChance:  b2i(ps.StealChance),
		StealAttempted:      b2i(ps.StealAttempted),
		FoldBbToStealChance: b2i(ps.FoldBBToStealChance),
		FoldedBbToSteal:     b2i(ps.FoldedBBToSteal),
		FoldSbToStealChance: b2i(ps.FoldSBToStealChance),
		FoldedSbToSteal:     b2i(ps.FoldedSBToSteal),
	}
	cards := []*string{&row.Card1, &row.Card2, &row.Card3, &row.Card4, &row.Card5, &row.Card6, &row.Card7}
	for i := range cards {
		*cards[i] = ps.Cards[i]
	}

	seen := []*int{nil, &row.Street1Seen, &row.Street2Seen, &row.Street3Seen, &row.Street4Seen}
	aggr := []*int{nil, &row.Street1Aggr, &row.Street2Aggr, &row.Street3Aggr, &row.Street4Aggr}
	calls := []*int{nil, &row.Street1Calls, &row.Street2Calls, &row.Street3Calls, &row.Street4Calls}
	bets := []*int{nil, &row.Street1Bets, &row.Street2Bets, &row.Street3Bets, &row.Street4Bets}
	cbChance := []*int{nil, &row.Street1CBChance, &row.Street2CBChance, &row.Street3CBChance, &row.Street4CBChance}
	cbDone := []*int{nil, &row.Street1CBDone, &row.Street2CBDone, &row.Street3CBDone, &row.Street4CBDone}
	foldCBChance := []*int{nil, &row.FoldToStreet1CBChance, &row.FoldToStreet2CBChance, &row.FoldToStreet3CBChance, &row.FoldToStreet4CBChance}
	foldCBDone := []*int{nil, &row.FoldToStreet1CBDone, &row.FoldToStreet2CBDone, &row.FoldToStreet3CBDone, &row.FoldToStreet4CBDone}
	otherRaised := []*int{nil, &row.OtherRaisedStreet1, &row.OtherRaisedStreet2, &row.OtherRaisedStreet3, &row.OtherRaisedStreet4}
	foldToOther := []*int{nil, &row.FoldToOtherRaisedStreet1, &row.FoldToOtherRaisedStreet2, &row.FoldToOtherRaisedStreet3, &row.FoldToOtherRaisedStreet4}
	ccrChance := []*int{nil, &row.Street1CheckCallRaiseChance, &row.Street2CheckCallRaiseChance, &row.Street3CheckCallRaiseChance, &row.Street4CheckCallRaiseChance}
	ccrDone := []*int{nil, &row.Street1CheckCallRaiseDone, &row.Street2CheckCallRaiseDone, &row.Street3CheckCallRaiseDone, &row.Street4CheckCallRaiseDone}
	for n := 1; n <= 4; n++ {
		*seen[n] = b2i(ps.Seen[n])
		*aggr[n] = b2i(ps.Aggr[n])
		*calls[n] = ps.Calls[n]
		*bets[n] = ps.Bets[n]
		*cbChance[n] = b2i(ps.CBChance[n])
		*cbDone[n] = b2i(ps.CBDone[n])
		*foldCBChance[n] = b2i(ps.FoldToCBChance[n])
		*foldCBDone[n] = b2i(ps.FoldToCBDone[n])
		*otherRaised[n] = b2i(ps.OtherRaised[n])
		*foldToOther[n] = b2i(ps.FoldToOtherRaised[n])
		*ccrChance[n] = b2i(ps.CheckCallRaiseChance[n])
		*ccrDone[n] = b2i(ps.CheckCallRaiseDone[n])
	}
	return row
}
