// Package server wires the web application: the server-rendered match list,
// its SSE update stream, and the JSON API.
package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/aoeboard/aoeboard/internal/metrics"
	"github.com/aoeboard/aoeboard/internal/poller"
	"github.com/aoeboard/aoeboard/internal/replay"
	"github.com/aoeboard/aoeboard/internal/stats"
	"github.com/aoeboard/aoeboard/internal/store"
)

type Server struct {
	store  *store.Store
	poller *poller.Poller
	engine *gin.Engine
}

// New builds the gin engine with the template funcmap and all routes.
func New(st *store.Store, p *poller.Poller, templatesGlob string) *Server {
	s := &Server{store: st, poller: p, engine: gin.Default()}

	funcmap := sprig.FuncMap()
	funcmap["FormatDuration"] = stats.FormatDuration
	funcmap["CleanGameType"] = stats.CleanGameType
	funcmap["MatchLabel"] = stats.MatchLabel
	s.engine.SetFuncMap(funcmap)
	s.engine.LoadHTMLGlob(templatesGlob)

	s.engine.Use(RequestID(), Sessions())

	s.engine.GET("/", s.index)
	s.engine.GET("/updates", s.updates)
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	s.engine.GET("/api/game_stats", s.gameStats)
	s.engine.GET("/api/parsed_replays", s.intakeStatus)
	s.engine.POST("/api/parsed_replays", s.intake)
	s.engine.POST("/api/parse_replay", s.parseReplay)

	return s
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "layout.html", gin.H{
		"Matches": s.poller.Snapshot(),
		"Session": SessionFrom(c),
	})
}

// updates streams the re-rendered match list as server-sent events: an init
// event with the current state on connect, then an update event whenever a
// poll cycle changes the snapshot.
func (s *Server) updates(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	updates := s.poller.Updates.Subscribe()
	defer s.poller.Updates.Unsubscribe(updates)

	c.SSEvent("init", gin.H{"html": s.renderMatchList(s.poller.Snapshot())})
	flush(c)

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case matches := <-updates:
			c.SSEvent("update", gin.H{"html": s.renderMatchList(matches)})
			flush(c)
		}
	}
}

func flush(c *gin.Context) {
	if f, ok := c.Writer.(http.Flusher); ok {
		f.Flush()
	}
}

// renderMatchList renders the card list fragment for the SSE stream.
func (s *Server) renderMatchList(matches []stats.Match) string {
	html := s.engine.HTMLRender.Instance("matchlist.html", gin.H{
		"Matches": matches,
	}).(render.HTML)

	var buf bytes.Buffer
	if err := html.Template.ExecuteTemplate(&buf, html.Name, html.Data); err != nil {
		log.WithError(err).Error("rendering match list failed")
		return ""
	}
	return buf.String()
}

// gameStats returns every stored match, newest first, with the stored map and
// players text decoded where possible. A map value that is not valid JSON is
// returned as the bare string; an undecodable players value becomes an empty
// list.
func (s *Server) gameStats(c *gin.Context) {
	rows, err := s.store.All(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("reading game stats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read game stats"})
		return
	}

	results := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		results = append(results, gin.H{
			"id":           row.ID,
			"game_version": row.GameVersion,
			"map":          jsonOrString(row.Map),
			"game_type":    row.GameType,
			"duration":     row.Duration,
			"winner":       row.Winner,
			"players":      jsonOrEmptyList(row.Players),
			"timestamp":    row.Timestamp,
		})
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, results)
}

func jsonOrString(text string) any {
	if json.Valid([]byte(text)) {
		return json.RawMessage(text)
	}
	return text
}

func jsonOrEmptyList(text string) json.RawMessage {
	if json.Valid([]byte(text)) {
		return json.RawMessage(text)
	}
	return json.RawMessage("[]")
}

func (s *Server) intakeStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Replay intake is ready. POST a parsed replay to this endpoint.",
	})
}

// intake accepts any JSON body and echoes it back. It deliberately validates
// and stores nothing; only a body that fails to parse as JSON is rejected.
func (s *Server) intake(c *gin.Context) {
	var body any
	if err := c.ShouldBindJSON(&body); err != nil {
		log.WithError(err).Error("replay intake: malformed JSON body")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid JSON payload"})
		return
	}
	log.WithFields(log.Fields{
		"request_id": RequestIDFrom(c),
		"payload":    body,
	}).Info("parsed replay received")
	c.JSON(http.StatusOK, gin.H{
		"message": "Replay received successfully!",
		"data":    body,
	})
}

type parseReplayRequest struct {
	ReplayFile string        `json:"replay_file"`
	Stats      *replay.Stats `json:"stats"`
}

// parseReplay stores a replay reported by the watcher agent. Replays are
// keyed by file path; a replay seen before is acknowledged without a second
// row. When no parsed stats accompany the path, a stub row is stored whose
// timestamp comes from the filename and whose empty player list keeps it off
// the match list until a parser fills it in.
func (s *Server) parseReplay(c *gin.Context) {
	var req parseReplayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid JSON payload"})
		return
	}
	if req.ReplayFile == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Replay path missing"})
		return
	}

	inserted, err := s.store.Insert(c.Request.Context(), rowFromRequest(req))
	if err != nil {
		log.WithError(err).WithField("replay", req.ReplayFile).Error("storing replay failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert replay into DB"})
		return
	}
	if !inserted {
		log.WithField("replay", req.ReplayFile).Info("replay already in database")
		c.JSON(http.StatusOK, gin.H{"message": "Replay already in database."})
		return
	}
	metrics.ReplaysIngested.Inc()
	log.WithField("replay", req.ReplayFile).Info("replay stored")
	c.JSON(http.StatusOK, gin.H{"message": "Replay parsed and stored successfully!"})
}

func rowFromRequest(req parseReplayRequest) store.Row {
	row := store.Row{ReplayFile: req.ReplayFile, Players: "[]"}
	if st := req.Stats; st != nil {
		row.GameVersion = st.GameVersion
		row.GameType = st.GameType
		row.Duration = st.Duration
		row.Winner = st.Winner
		row.Timestamp = st.Timestamp
		if len(st.Map) > 0 {
			row.Map = string(st.Map)
		}
		if len(st.Players) > 0 {
			row.Players = string(st.Players)
		}
	}
	if row.Timestamp == "" {
		ts, ok := replay.TimestampFromFilename(filepath.Base(req.ReplayFile))
		if !ok {
			ts = time.Now().UTC()
		}
		row.Timestamp = ts.Format("2006-01-02 15:04:05")
	}
	return row
}
