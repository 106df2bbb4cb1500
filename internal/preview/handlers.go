package preview

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/rgehrsitz/planforge/internal/budget"
	"github.com/rgehrsitz/planforge/internal/compiler"
	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/duplicates"
	"github.com/rgehrsitz/planforge/internal/events"
	"github.com/rgehrsitz/planforge/internal/logging"
	"github.com/rgehrsitz/planforge/internal/output"
)

// ScenarioRequest carries one scenario and the library it references
type ScenarioRequest struct {
	Scenario domain.Scenario          `json:"scenario" binding:"required"`
	Library  []domain.EventDefinition `json:"library"`

	// Strict rejects instead of warning; previews are lenient by default
	Strict bool `json:"strict"`
}

// PlanRequest carries a set of scenarios for cross-scenario operations
type PlanRequest struct {
	Scenarios   []domain.Scenario        `json:"scenarios" binding:"required"`
	Library     []domain.EventDefinition `json:"library"`
	ScenarioIDs []string                 `json:"scenarioIds"`
}

// MergeRequest selects a cluster of a plan and the definition to keep
type MergeRequest struct {
	PlanRequest
	ClusterID        string `json:"clusterId" binding:"required"`
	BaseDefinitionID string `json:"baseDefinitionId" binding:"required"`
}

// MergeResponse is the merge plan and the scenarios after applying it
type MergeResponse struct {
	Steps     []duplicates.MergeStep `json:"steps"`
	Scenarios []domain.Scenario      `json:"scenarios"`
}

// DiffRequest compares a scenario's view of an event with a base definition
type DiffRequest struct {
	Base      domain.EventDefinition     `json:"base" binding:"required"`
	Target    domain.EventDefinition     `json:"target" binding:"required"`
	Overrides *domain.EventRuleOverrides `json:"overrides"`
}

// HealthResponse reports liveness
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (co Controller) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: co.version})
}

func (co Controller) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (co Controller) compile(c *gin.Context, req ScenarioRequest) (*compiler.Result, bool) {
	result, err := compiler.MapScenarioToEngineInput(req.Scenario, req.Library, compiler.Options{
		Lenient: !req.Strict,
		Now:     co.now,
		Logger:  logging.Zerolog{Logger: co.log.With().Str("request-id", requestid.Get(c)).Logger()},
	})
	if err == nil {
		return result, true
	}

	body := HTTPError{Error: err.Error(), RequestID: requestid.Get(c)}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		body.Code = string(ce.Code)
		body.Ref = ce.Ref
	}
	if errors.Is(err, compiler.ErrInvalidAssumptions) {
		body.Code = string(compiler.CodeInvalidHorizon)
	}
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, body)
	return nil, false
}

func (co Controller) Compile(c *gin.Context) {
	var req ScenarioRequest
	if !co.bind(c, &req) {
		return
	}
	if result, ok := co.compile(c, req); ok {
		c.JSON(http.StatusOK, result)
	}
}

func (co Controller) Budget(c *gin.Context) {
	var req ScenarioRequest
	if !co.bind(c, &req) {
		return
	}
	base := compiler.InferBaseMonth(req.Scenario, req.Library, co.now())
	entries := budget.CompileAllBudgetRulesFrom(req.Scenario, base)
	c.JSON(http.StatusOK, output.NewBudgetReport(req.Scenario.ID, entries))
}

func (co Controller) Project(c *gin.Context) {
	var req ScenarioRequest
	if !co.bind(c, &req) {
		return
	}
	result, ok := co.compile(c, req)
	if !ok {
		return
	}
	proj, err := co.calculator.Project(c.Request.Context(), result.Input, budget.CompileAllBudgetRulesFrom(req.Scenario, result.Input.BaseMonth))
	if err != nil {
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	c.JSON(http.StatusOK, output.ProjectionReport{ScenarioID: req.Scenario.ID, Projection: proj, Warnings: result.Warnings})
}

func (co Controller) Duplicates(c *gin.Context) {
	var req PlanRequest
	if !co.bind(c, &req) {
		return
	}
	clusters := co.detector.FindClusters(req.Scenarios, req.Library, req.ScenarioIDs)
	if clusters == nil {
		clusters = []duplicates.Cluster{}
	}
	c.JSON(http.StatusOK, clusters)
}

func (co Controller) Merge(c *gin.Context) {
	var req MergeRequest
	if !co.bind(c, &req) {
		return
	}

	var cluster *duplicates.Cluster
	clusters := co.detector.FindClusters(req.Scenarios, req.Library, req.ScenarioIDs)
	for i := range clusters {
		if clusters[i].ID == req.ClusterID {
			cluster = &clusters[i]
			break
		}
	}
	if cluster == nil {
		abortWithError(c, http.StatusNotFound, fmt.Sprintf("cluster %s not found", req.ClusterID))
		return
	}

	steps, err := co.detector.PlanMerge(*cluster, req.BaseDefinitionID)
	if err != nil {
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	merged, err := duplicates.ApplyMerge(&domain.Plan{EventLibrary: req.Library, Scenarios: req.Scenarios}, steps)
	if err != nil {
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	co.log.Info().Str("request-id", requestid.Get(c)).Str("cluster", cluster.ID).Int("steps", len(steps)).Msg("merge previewed")
	c.JSON(http.StatusOK, MergeResponse{Steps: steps, Scenarios: merged.Scenarios})
}

func (co Controller) Diff(c *gin.Context) {
	var req DiffRequest
	if !co.bind(c, &req) {
		return
	}
	base := events.ResolveEventRule(req.Base, domain.ScenarioEventRef{RefID: req.Base.ID, Enabled: true})
	target := events.ResolveEventRule(req.Target, domain.ScenarioEventRef{RefID: req.Target.ID, Enabled: true, Overrides: req.Overrides})

	diffs := co.detector.Differences(base, target)
	if diffs == nil {
		diffs = []duplicates.Difference{}
	}
	c.JSON(http.StatusOK, output.DiffReport{
		RefID:       req.Target.ID,
		BaseID:      req.Base.ID,
		Differences: diffs,
		Overrides:   co.detector.BuildOverrides(base, target),
	})
}
