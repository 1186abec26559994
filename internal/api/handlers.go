package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/annel0/rewind/internal/clock"
	"github.com/annel0/rewind/internal/world"
)

var errBadRequest = errors.New("bad request")

// ClockResult ответ на команду часам
type ClockResult struct {
	Changed bool        `json:"changed"`
	Clock   clock.State `json:"clock"`
}

// ParticipationRequest тело запроса на включение или выключение объекта
type ParticipationRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (s *Server) handleStats(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	sceneStats, err := world.Query(ctx, s.scene, "stats", func(sc *world.Scene) (world.Stats, error) {
		return sc.Stats(), nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	stats := map[string]interface{}{"scene": sceneStats}
	if s.cfg.Rewind != nil {
		stats["history"] = s.cfg.Rewind.Totals()
	}

	cpuPercent, _ := s.metrics.GetCPUUsage()
	rssMB, _ := s.metrics.GetRSS()
	stats["server"] = map[string]interface{}{
		"uptime":      s.metrics.GetUptime(),
		"rss_mb":      fmt.Sprintf("%.2f", rssMB),
		"cpu_percent": fmt.Sprintf("%.2f", cpuPercent),
		"server_time": time.Now().Unix(),
	}
	stats["memory_details"] = s.metrics.GetDetailedMemoryStats()
	stats["stream"] = map[string]interface{}{
		"subscribers": s.stream.count(),
		"dropped":     s.stream.dropped.Load(),
	}

	ok(c, "Статистика получена", stats)
}

func (s *Server) handleClockState(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	st, err := world.Query(ctx, s.scene, "clock.state", func(sc *world.Scene) (clock.State, error) {
		return sc.Clock().State(), nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, "Состояние часов", st)
}

// clockAction оборачивает команду часам, которая возвращает признак изменения
func (s *Server) clockAction(name string, action func(*clock.Clock) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := s.requestContext(c)
		defer cancel()

		res, err := world.Query(ctx, s.scene, "clock."+name, func(sc *world.Scene) (ClockResult, error) {
			clk := sc.Clock()
			before := clk.State()
			action(clk)
			after := clk.State()
			return ClockResult{Changed: before != after, Clock: after}, nil
		})
		if err != nil {
			s.fail(c, err)
			return
		}
		s.log.Debug("🕹️ %s changed=%t", name, res.Changed)
		ok(c, name, res)
	}
}

func (s *Server) handleSetSpeed(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	preset := c.Param("preset")
	res, err := world.Query(ctx, s.scene, "clock.speed", func(sc *world.Scene) (ClockResult, error) {
		clk := sc.Clock()
		before := clk.Rate()
		if err := clk.SetSpeedByName(preset); err != nil {
			return ClockResult{}, err
		}
		return ClockResult{Changed: before != clk.Rate(), Clock: clk.State()}, nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, "Скорость изменена", res)
}

func (s *Server) handleListEntities(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	infos, err := world.Query(ctx, s.scene, "entities", func(sc *world.Scene) ([]world.EntityInfo, error) {
		entities := sc.Entities()
		out := make([]world.EntityInfo, 0, len(entities))
		for _, e := range entities {
			out = append(out, e.Info())
		}
		return out, nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, fmt.Sprintf("Объектов: %d", len(infos)), infos)
}

func parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid entity id %q", errBadRequest, c.Param("id"))
	}
	return id, nil
}

func (s *Server) handleGetEntity(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	info, err := world.Query(ctx, s.scene, "entity", func(sc *world.Scene) (world.EntityInfo, error) {
		e, err := sc.Entity(id)
		if err != nil {
			return world.EntityInfo{}, err
		}
		return e.Info(), nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, info.Name, info)
}

func (s *Server) handleGetTimeline(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	tl, err := world.Query(ctx, s.scene, "entity.timeline", func(sc *world.Scene) (world.Timeline, error) {
		e, err := sc.Entity(id)
		if err != nil {
			return world.Timeline{}, err
		}
		return e.Timeline(), nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, "История объекта", tl)
}

func (s *Server) handleSetParticipation(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req ParticipationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	info, err := world.Query(ctx, s.scene, "entity.participation", func(sc *world.Scene) (world.EntityInfo, error) {
		e, err := sc.Entity(id)
		if err != nil {
			return world.EntityInfo{}, err
		}
		e.Controller.SetParticipation(*req.Enabled)
		return e.Info(), nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, "Участие изменено", info)
}
