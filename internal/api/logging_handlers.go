package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/annel0/rewind/internal/logging"
)

// LogLevelRequest тело запроса на смену уровня логирования
type LogLevelRequest struct {
	Level string `json:"level" binding:"required"`
}

func levelNames() map[string]string {
	levels := logging.GetLoggerManager().Levels()
	out := make(map[string]string, len(levels))
	for component, level := range levels {
		out[component] = level.String()
	}
	return out
}

func (s *Server) handleListLogLevels(c *gin.Context) {
	ok(c, "Уровни логирования", levelNames())
}

func (s *Server) handleSetLogLevel(c *gin.Context) {
	var req LogLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	level, err := logging.ParseLevel(req.Level)
	if err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	component := c.Param("component")
	if err := logging.GetLoggerManager().SetLogLevel(component, level); err != nil {
		s.fail(c, err)
		return
	}
	s.log.Info("🔧 Уровень логов %s: %s", component, level)
	ok(c, "Уровень изменён", levelNames())
}
