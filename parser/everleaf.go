package parser

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"voyager.com/tracker/hand"
	"voyager.com/tracker/util"
)

var everleafLogger = util.GetZeroLogger("parser::everleaf", nil)

// Static patterns for the Everleaf hand-history format.
var (
	reGameInfo = regexp.MustCompile(`(?m)^(Blinds )?(?P<CURRENCY>\$| €|)(?P<SB>[.0-9]+)/(?:\$| €)?(?P<BB>[.0-9]+)(?P<LIMIT> NL | PL | )(?P<GAME>Hold'em|Omaha|7 Card Stud)`)
	reHandInfo = regexp.MustCompile(`(?m).*#(?P<HID>[0-9]+)\n.*\n(Blinds )?(?:\$| €|)(?P<SB>[.0-9]+)/(?:\$| €|)(?P<BB>[.0-9]+) (?P<GAMETYPE>.*) - (?P<DATETIME>\d\d\d\d/\d\d/\d\d - \d\d:\d\d:\d\d)\nTable (?P<TABLE>.+)$`)
	reButton   = regexp.MustCompile(`(?m)^Seat (?P<BUTTON>\d+) is the button`)
	rePlayer   = regexp.MustCompile(`(?m)^Seat (?P<SEAT>[0-9]+): (?P<PNAME>.*) \(\s+((?:\$| €|) (?P<CASH>[.0-9]+) (USD|EUR|)|new player|All-in) \)`)
	reBoard    = regexp.MustCompile(`\[ (?P<CARDS>.+) \]`)
)

// everleafPatterns are the per-hand patterns built against the current
// player-name set. Names can contain regex metacharacters, so they are always
// quoted; the set is rebuilt only when the name set changes across hands.
type everleafPatterns struct {
	names map[string]struct{}

	postSB   *regexp.Regexp
	postBB   *regexp.Regexp
	postBoth *regexp.Regexp
	antes    *regexp.Regexp
	bringIn  *regexp.Regexp
	hero     *regexp.Regexp
	action   *regexp.Regexp
	showdown *regexp.Regexp
	collect  *regexp.Regexp
}

// Everleaf extracts hands written in the Everleaf Gaming history format.
// One value per import run; safe for a single extraction goroutine.
type Everleaf struct {
	siteID   int
	patterns everleafPatterns
	log      zerolog.Logger
}

func NewEverleaf(siteID int) *Everleaf {
	return &Everleaf{siteID: siteID, log: *everleafLogger}
}

func (e *Everleaf) SiteID() int      { return e.siteID }
func (e *Everleaf) SiteName() string { return "Everleaf" }

var everleafLimits = map[string]string{" NL ": "nl", " PL ": "pl", " ": "fl"}

var everleafGames = map[string][2]string{
	"Hold'em":     {hand.BaseHold, "holdem"},
	"Omaha":       {hand.BaseHold, "omahahi"},
	"7 Card Stud": {hand.BaseStud, "studhi"},
}

var everleafCurrencies = map[string]string{" €": "EUR", "$": "USD", "": "T$"}

// DetectGameType classifies the hand header, e.g.
// "Blinds $0.05/$0.10 NL Hold'em - 2009/02/21 - 11:21:57".
func (e *Everleaf) DetectGameType(text string) (*hand.GameType, bool) {
	m := matchNamed(reGameInfo, text)
	if m == nil {
		return nil, false
	}
	game, ok := everleafGames[m["GAME"]]
	if !ok {
		return nil, false
	}
	gt := &hand.GameType{
		Type:     "ring",
		Base:     game[0],
		Category: game[1],
		Limit:    everleafLimits[m["LIMIT"]],
		Currency: everleafCurrencies[m["CURRENCY"]],
		HiLo:     "h",
	}
	switch gt.Category {
	case "studhilo", "omahahilo":
		gt.HiLo = "s"
	case "razz":
		gt.HiLo = "l"
	}
	sb, bb := parseCents(m["SB"]), parseCents(m["BB"])
	if gt.Limit == "fl" {
		gt.SmallBet, gt.BigBet = sb, bb
	} else {
		gt.SmallBlind, gt.BigBlind = sb, bb
	}
	return gt, true
}

func (e *Everleaf) ReadHandInfo(h *hand.Hand) error {
	m := matchNamed(reHandInfo, h.RawText)
	if m == nil {
		return &ParseError{Site: e.SiteName(), Field: "hand info header"}
	}
	h.SiteHandNo = m["HID"]
	h.TableName = strings.TrimRight(m["TABLE"], "\r")
	// Assume 6-max; Everleaf gives no seat-max info in the header.
	h.MaxSeats = 6
	start, err := time.Parse("2006/01/02 - 15:04:05", m["DATETIME"])
	if err != nil {
		return &ParseError{Site: e.SiteName(), Field: "start time"}
	}
	h.StartTime = start.UTC()
	return nil
}

func (e *Everleaf) ReadPlayerStacks(h *hand.Hand) error {
	for _, m := range matchAllNamed(rePlayer, h.RawText) {
		seat := atoiSafe(m["SEAT"])
		h.AddPlayer(seat, m["PNAME"], parseCents(m["CASH"]))
		if seat > 6 {
			// Everleaf runs 2/6/10 tables; a seat above 6 means 10-max.
			h.MaxSeats = 10
		}
	}
	e.compilePlayerPatterns(h)
	return nil
}

func (e *Everleaf) MarkStreets(h *hand.Hand) {
	h.Streets = MarkStreets(h.RawText, h.GameType.Base)
}

func (e *Everleaf) ReadButton(h *hand.Hand) {
	if m := matchNamed(reButton, h.RawText); m != nil {
		h.ButtonPos = atoiSafe(m["BUTTON"])
	}
}

func (e *Everleaf) ReadAntes(h *hand.Hand) {
	for _, m := range matchAllNamed(e.patterns.antes, h.RawText) {
		h.AddAction(firstStreetName(h), m["PNAME"], hand.ActionPostAnte, parseCents(m["ANTE"]))
	}
}

func (e *Everleaf) ReadBringIn(h *hand.Hand) {
	m := matchNamed(e.patterns.bringIn, h.RawText)
	if m == nil {
		e.log.Warn().Msg("No bring-in found")
		return
	}
	h.AddAction(firstStreetName(h), m["PNAME"], hand.ActionBringIn, parseCents(m["BRINGIN"]))
}

func (e *Everleaf) ReadBlinds(h *hand.Hand) {
	if m := matchNamed(e.patterns.postSB, h.RawText); m != nil {
		h.AddAction(hand.StreetPreflop, m["PNAME"], hand.ActionPostSmallBlind, parseCents(m["SB"]))
	}
	for _, m := range matchAllNamed(e.patterns.postBB, h.RawText) {
		h.AddAction(hand.StreetPreflop, m["PNAME"], hand.ActionPostBigBlind, parseCents(m["BB"]))
	}
	for _, m := range matchAllNamed(e.patterns.postBoth, h.RawText) {
		h.AddAction(hand.StreetPreflop, m["PNAME"], hand.ActionPostBoth, parseCents(m["SBBB"]))
	}
}

func (e *Everleaf) ReadHeroCards(h *hand.Hand) {
	m := matchNamed(e.patterns.hero, h.RawText)
	if m == nil {
		// Hero not involved in this hand.
		return
	}
	h.Hero = m["PNAME"]
	h.AddHoleCards(m["PNAME"], splitCards(m["CARDS"]))
}

func (e *Everleaf) ReadCommunityCards(h *hand.Hand, street string) error {
	text, _ := h.StreetText(street)
	m := matchNamed(reBoard, text)
	if m == nil {
		return &ParseError{Site: e.SiteName(), Field: "board cards on " + street}
	}
	h.SetCommunityCards(street, splitCards(m["CARDS"]))
	return nil
}

func (e *Everleaf) ReadAction(h *hand.Hand, street string) error {
	text, _ := h.StreetText(street)
	for _, m := range matchAllNamed(e.patterns.action, text) {
		amount := parseCents(m["BET"])
		switch m["ATYPE"] {
		case ": bets":
			h.AddAction(street, m["PNAME"], hand.ActionBet, amount)
		case " raises":
			h.AddAction(street, m["PNAME"], hand.ActionRaise, amount)
		case " calls":
			h.AddAction(street, m["PNAME"], hand.ActionCall, amount)
		case " checks":
			h.AddAction(street, m["PNAME"], hand.ActionCheck, 0)
		case " folds":
			h.AddAction(street, m["PNAME"], hand.ActionFold, 0)
		default:
			e.log.Debug().Msgf("Unhandled action %q by %s", m["ATYPE"], m["PNAME"])
		}
	}
	return nil
}

func (e *Everleaf) ReadShowdownActions(h *hand.Hand) {
	for _, m := range matchAllNamed(e.patterns.showdown, h.RawText) {
		h.AddShownCards(m["PNAME"], splitCards(m["CARDS"]))
		h.AddAction("", m["PNAME"], hand.ActionShow, 0)
	}
}

func (e *Everleaf) ReadCollectPot(h *hand.Hand) {
	for _, m := range matchAllNamed(e.patterns.collect, h.RawText) {
		h.AddCollectPot(m["PNAME"], parseCents(m["POT"]))
	}
}

// ReadShownCards picks up summary lines where hole and board cards are shown
// together with the pot award.
func (e *Everleaf) ReadShownCards(h *hand.Hand) {
	for _, m := range matchAllNamed(e.patterns.collect, h.RawText) {
		if m["CARDS"] != "" {
			h.AddShownCards(m["PNAME"], splitCards(m["CARDS"]))
		}
	}
}

// compilePlayerPatterns rebuilds the name-dependent patterns, but only when
// the player-name set differs from the previous hand's.
func (e *Everleaf) compilePlayerPatterns(h *hand.Hand) {
	names := make(map[string]struct{}, len(h.Players))
	for _, p := range h.Players {
		names[p.Name] = struct{}{}
	}
	if sameNameSet(e.patterns.names, names) {
		return
	}

	quoted := make([]string, 0, len(names))
	for name := range names {
		quoted = append(quoted, regexp.QuoteMeta(name))
	}
	// Longest first so a name that prefixes another cannot shadow it.
	sort.Slice(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	playerRe := "(?P<PNAME>" + strings.Join(quoted, "|") + ")"
	e.log.Debug().Msgf("Recompiling player patterns for %d players", len(names))

	p := everleafPatterns{names: names}
	p.postSB = regexp.MustCompile(`(?m)^` + playerRe + `: posts small blind \[(?:\$| €|) (?P<SB>[.0-9]+)`)
	p.postBB = regexp.MustCompile(`(?m)^` + playerRe + `: posts big blind \[(?:\$| €|) (?P<BB>[.0-9]+)`)
	p.postBoth = regexp.MustCompile(`(?m)^` + playerRe + `: posts both blinds \[(?:\$| €|) (?P<SBBB>[.0-9]+)`)
	p.antes = regexp.MustCompile(`(?m)^` + playerRe + `: posts ante \[(?:\$| €|) (?P<ANTE>[.0-9]+)`)
	p.bringIn = regexp.MustCompile(`(?m)^` + playerRe + ` posts bring-in (?:\$| €|)(?P<BRINGIN>[.0-9]+)\.`)
	p.hero = regexp.MustCompile(`(?m)^Dealt to ` + playerRe + ` \[ (?P<CARDS>.*) \]`)
	p.action = regexp.MustCompile(`(?m)^` + playerRe + `(?P<ATYPE>: bets| checks| raises| calls| folds)(\s\[(?:\$| €|) (?P<BET>[.\d]+) (USD|EUR|)\])?`)
	p.showdown = regexp.MustCompile(`(?m)^` + playerRe + ` shows \[ (?P<CARDS>.*) \]`)
	p.collect = regexp.MustCompile(`(?m)^` + playerRe + ` wins (?:\$| €|) (?P<POT>[.\d]+) (USD|EUR|chips)(.*?\[ (?P<CARDS>.*?) \])?`)
	e.patterns = p
}

func sameNameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			return false
		}
	}
	return true
}

func firstStreetName(h *hand.Hand) string {
	if len(h.Streets) > 0 {
		return h.Streets[0].Name
	}
	if h.GameType.Base == hand.BaseStud {
		return hand.StreetAntes
	}
	return hand.StreetPreflop
}

func splitCards(s string) []string {
	parts := strings.Split(s, ",")
	cards := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cards = append(cards, p)
		}
	}
	return cards
}
