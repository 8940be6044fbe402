package status

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/tomoflow/component"
	"github.com/kbukum/tomoflow/driver"
)

type healthResponse struct {
	Status     component.HealthStatus `json:"status"`
	RunID      string                 `json:"run_id"`
	State      driver.State           `json:"state"`
	Timestamp  string                 `json:"timestamp"`
	Components []component.Health     `json:"components"`
}

// handleHealth reports unhealthy when a component is, or when the run
// failed.
func (s *Server) handleHealth(c *gin.Context) {
	st := s.run.Status()
	resp := healthResponse{
		RunID:     st.RunID,
		State:     st.State,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.health != nil {
		resp.Components = s.health(c.Request.Context())
	}
	resp.Status = component.Overall(resp.Components)
	if st.State == driver.StateFailed {
		resp.Status = component.StatusUnhealthy
	}

	code := http.StatusOK
	if resp.Status == component.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

func (s *Server) handleRuns(c *gin.Context) {
	respondOK(c, []driver.Status{s.run.Status()})
}

func (s *Server) handleDatasets(c *gin.Context) {
	ds := s.run.Datasets()
	if ds == nil {
		ds = []driver.DatasetInfo{}
	}
	respondOK(c, ds)
}

func (s *Server) handleDataset(c *gin.Context) {
	info, err := s.run.Dataset(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, info)
}
