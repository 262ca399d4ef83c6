package parser

import (
	"fmt"
	"regexp"

	"github.com/pkg/errors"
	"voyager.com/tracker/hand"
)

// ErrUnsupportedGame signals that the hand header was recognized as a game we
// do not import. The hand is skipped, the batch continues.
var ErrUnsupportedGame = errors.New("unsupported game type")

// ParseError means a required header field was missing from the hand text.
// Fatal for the single hand, never for the batch.
type ParseError struct {
	Site  string
	Field string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: could not parse %s from hand text", e.Site, e.Field)
}

// SiteExtractor is the capability contract one poker room's hand-history
// format must satisfy. Implementations are stateless across hands except for
// a compiled-pattern cache keyed by the current hand's player-name set.
type SiteExtractor interface {
	SiteID() int
	SiteName() string

	// DetectGameType classifies the hand header. ok=false is a skip signal,
	// not an error.
	DetectGameType(text string) (gt *hand.GameType, ok bool)

	ReadHandInfo(h *hand.Hand) error
	ReadPlayerStacks(h *hand.Hand) error
	MarkStreets(h *hand.Hand)
	ReadButton(h *hand.Hand)
	ReadAntes(h *hand.Hand)
	ReadBringIn(h *hand.Hand)
	ReadBlinds(h *hand.Hand)
	ReadHeroCards(h *hand.Hand)
	ReadCommunityCards(h *hand.Hand, street string) error
	ReadAction(h *hand.Hand, street string) error
	ReadShowdownActions(h *hand.Hand)
	ReadCollectPot(h *hand.Hand)
	ReadShownCards(h *hand.Hand)
}

var reSplitHands = regexp.MustCompile(`\n\n+`)

// SplitHands breaks a multi-hand history file into per-hand text blocks.
// Hands are delimited by a run of blank lines.
func SplitHands(text string) []string {
	var out []string
	for _, block := range reSplitHands.Split(text, -1) {
		if len(block) > 0 && !isBlank(block) {
			out = append(out, block)
		}
	}
	return out
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\r' && r != '\n' {
			return false
		}
	}
	return true
}

// ProcessHand drives a site extractor over one hand's raw text and returns the
// populated canonical hand. Returns ErrUnsupportedGame or a *ParseError as
// skip signals; the caller moves on to the next hand in the batch.
func ProcessHand(x SiteExtractor, text string) (*hand.Hand, error) {
	gt, ok := x.DetectGameType(text)
	if !ok {
		return nil, ErrUnsupportedGame
	}
	gt.SiteID = x.SiteID()
	h := hand.New(x.SiteID(), gt, text)

	if err := x.ReadHandInfo(h); err != nil {
		return nil, err
	}
	if err := x.ReadPlayerStacks(h); err != nil {
		return nil, err
	}
	if len(h.Players) == 0 {
		return nil, &ParseError{Site: x.SiteName(), Field: "players"}
	}
	x.MarkStreets(h)
	if err := h.CheckStreetOrder(); err != nil {
		return nil, errors.Wrap(err, "street segmentation")
	}

	x.ReadButton(h)
	x.ReadAntes(h)
	if gt.Base == hand.BaseStud {
		x.ReadBringIn(h)
	} else {
		x.ReadBlinds(h)
	}
	x.ReadHeroCards(h)

	for _, s := range h.Streets {
		if gt.Base == hand.BaseHold && s.Name != hand.StreetPreflop {
			if err := x.ReadCommunityCards(h, s.Name); err != nil {
				return nil, err
			}
		}
		if err := x.ReadAction(h, s.Name); err != nil {
			return nil, err
		}
	}

	x.ReadShowdownActions(h)
	x.ReadCollectPot(h)
	x.ReadShownCards(h)
	return h, nil
}
