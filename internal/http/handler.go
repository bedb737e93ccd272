package http

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go.ngs.io/vertint/internal/adapter/store/cf"
	"go.ngs.io/vertint/internal/adapter/store/csv"
	"go.ngs.io/vertint/internal/domain"
	"go.ngs.io/vertint/internal/usecase"
)

// Handler handles HTTP requests for remapping runs.
type Handler struct {
	remapUC     *usecase.RemapUseCase
	levels      *csv.LevelStore
	dataDir     string
	extrapolate string
	log         logrus.FieldLogger
}

// NewHandler creates a new HTTP handler. Dataset paths in requests are resolved below
// dataDir; extrapolate is the server-wide EXTRAPOLATE toggle.
func NewHandler(remapUC *usecase.RemapUseCase, levels *csv.LevelStore, dataDir, extrapolate string, log logrus.FieldLogger) *Handler {
	return &Handler{
		remapUC:     remapUC,
		levels:      levels,
		dataDir:     dataDir,
		extrapolate: extrapolate,
		log:         log,
	}
}

// RemapBody is the JSON body of POST /v1/remap.
type RemapBody struct {
	Operator string `json:"operator" binding:"required"`
	Input    string `json:"input" binding:"required"`
	Output   string `json:"output" binding:"required"`

	// Levels holds "default" or level values; LevelList names a stored level list.
	Levels    []string `json:"levels"`
	LevelList string   `json:"level_list"`

	// Extrapolate overrides the server toggle when set.
	Extrapolate *string `json:"extrapolate"`
}

// PostRemap handles POST /v1/remap.
func (h *Handler) PostRemap(c *gin.Context) {
	var body RemapBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	req := usecase.RemapRequest{
		Operator:    body.Operator,
		Levels:      body.Levels,
		Extrapolate: h.extrapolate,
	}
	if body.Extrapolate != nil {
		req.Extrapolate = *body.Extrapolate
	}
	if body.LevelList != "" {
		values, err := h.levels.Load(body.LevelList)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("failed to load level list: %v", err)})
			return
		}
		req.Values = values
	}
	if _, _, err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inPath, err := h.resolve(body.Input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	outPath, err := h.resolve(body.Output)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src, err := cf.Open(inPath, h.log)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("failed to open input: %v", err)})
		return
	}
	defer func() { _ = src.Close() }()

	dst := cf.Create(outPath)
	defer func() { _ = dst.Abort() }()
	result, err := h.remapUC.Execute(c.Request.Context(), req, src, dst)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case usecase.IsFatal(err):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, domain.ErrUnknownOperator), errors.Is(err, domain.ErrNoLevels):
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if err := dst.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to write output: %v", err)})
		return
	}

	c.JSON(http.StatusOK, result)
}

// resolve maps a request path to a file below the data directory.
func (h *Handler) resolve(name string) (string, error) {
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("invalid dataset path %q", name)
	}
	return filepath.Join(h.dataDir, name), nil
}

// OperatorInfo describes one operator.
type OperatorInfo struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	LogScale    bool   `json:"log_scale"`
	Extrapolate bool   `json:"always_extrapolate"`
	Description string `json:"description"`
}

// GetOperators handles GET /v1/operators.
func (h *Handler) GetOperators(c *gin.Context) {
	response := make([]OperatorInfo, len(domain.Operators))
	for i, op := range domain.Operators {
		response[i] = OperatorInfo{
			Name:        op.Name,
			Kind:        op.Kind.String(),
			LogScale:    op.Scale == domain.ScaleLog,
			Extrapolate: op.Extrapolate,
			Description: op.Description,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"operators": response,
		"count":     len(response),
	})
}

// GetDefaultLevels handles GET /v1/levels/default.
func (h *Handler) GetDefaultLevels(c *gin.Context) {
	kind, err := domain.ParseLevelKind(c.Query("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	levels := domain.DefaultLevels(kind)
	pressures := make([]float64, len(levels))
	for i, v := range levels {
		pressures[i] = v
		if kind == domain.KindHeight {
			pressures[i] = domain.HeightToPressure(v)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"kind":      kind.String(),
		"levels":    levels,
		"pressures": pressures,
	})
}

// GetLevelLists handles GET /v1/levels.
func (h *Handler) GetLevelLists(c *gin.Context) {
	names, err := h.levels.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"level_lists": names})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
