package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"voyager.com/tracker/stats"
	"voyager.com/tracker/store"
)

var restLogger = log.With().Str("logger_name", "rest::rest").Logger()

//
// APP error definition
//
type appError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type statsResponse struct {
	HandID  uint64                   `json:"handId"`
	Style   string                   `json:"style"`
	Players map[uint64]store.StatRow `json:"players"`
}

var statsReader *stats.Reader
var heroPlayerID uint64

// RunRestServer serves the aggregated statistics read API and the prometheus
// metrics endpoint. Blocks until the listener fails.
func RunRestServer(addr string, reader *stats.Reader, heroID uint64) {
	statsReader = reader
	heroPlayerID = heroID
	r := gin.Default()

	r.GET("/hand-stats", handStats)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Run(addr)
}

// handStats returns counter sums for every player dealt into a hand.
// Query params: hand-id (required), style (A/T/S, default A), seats-min and
// seats-max bound the table-size filter.
func handStats(c *gin.Context) {
	handIDStr := c.Query("hand-id")
	if handIDStr == "" {
		c.String(400, "Failed to read hand-id param from hand-stats endpoint")
		return
	}
	handID, err := strconv.ParseUint(handIDStr, 10, 64)
	if err != nil {
		c.String(400, "Failed to parse hand-id [%s] from hand-stats endpoint.", handIDStr)
		return
	}

	style := c.DefaultQuery("style", stats.StyleAll)
	seatsMin := queryInt(c, "seats-min", 1)
	seatsMax := queryInt(c, "seats-max", 10)

	players, err := statsReader.StatsForHand(handID, heroPlayerID, style, time.Now(), seatsMin, seatsMax)
	if err != nil {
		restLogger.Error().Err(err).Msgf("Unable to compute stats for hand %d", handID)
		c.IndentedJSON(http.StatusInternalServerError, appError{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, statsResponse{
		HandID:  handID,
		Style:   style,
		Players: players,
	})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
