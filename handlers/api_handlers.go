package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"student-analytics-server-go/analytics"
	"student-analytics-server-go/db"
	"student-analytics-server-go/models"
	"student-analytics-server-go/roster"
)

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Roster *roster.Roster
	Engine *analytics.Engine
	Logger log.Logger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(r *roster.Roster, engine *analytics.Engine, logger log.Logger) *APIHandler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if engine == nil {
		engine = analytics.NewEngine(nil)
	}
	return &APIHandler{
		Roster: r,
		Engine: engine,
		Logger: log.With(logger, "component", "api"),
	}
}

// RegisterRoutes mounts every API route under /api
func (h *APIHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")
	{
		api.GET("/ping", PingHandler)

		// Student routes
		api.GET("/students", h.ListStudents)
		api.POST("/students", h.AddStudent)
		api.GET("/students/:roll", h.GetStudent)
		api.DELETE("/students/:roll", h.RemoveStudent)
		api.POST("/students/:roll/marks", h.AddMark)
		api.GET("/students/:roll/report", h.StudentReport)

		// Analytics routes
		api.GET("/analytics", h.Analytics)
		api.GET("/analytics/report", h.AnalyticsReport)

		// Spreadsheet exchange
		api.POST("/import/students", h.ImportStudents)
		api.GET("/export/students.xlsx", h.ExportStudents)
	}
}

// studentView is a student as returned by the API, with derived figures
type studentView struct {
	models.Student
	AverageScore float64 `json:"averageScore"`
	Grade        string  `json:"grade"`
}

func (h *APIHandler) view(s models.Student) studentView {
	return studentView{Student: s, AverageScore: s.AverageScore(), Grade: s.Grade(h.Engine.Scale)}
}

type addStudentRequest struct {
	RollNumber string `json:"rollNumber"`
	Name       string `json:"name"`
	ClassName  string `json:"className"`
}

type addMarkRequest struct {
	Subject       string   `json:"subject"`
	MarksObtained *float64 `json:"marksObtained"`
	MaxMarks      *float64 `json:"maxMarks"`
}

// --- Student Handlers ---

// ListStudents handles GET /api/students
func (h *APIHandler) ListStudents(c *gin.Context) {
	students := h.Roster.ListStudents()
	views := make([]studentView, 0, len(students))
	for _, s := range students {
		views = append(views, h.view(s))
	}
	c.JSON(http.StatusOK, views)
}

// AddStudent handles POST /api/students
func (h *APIHandler) AddStudent(c *gin.Context) {
	var req addStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	student, err := models.NewStudent(req.RollNumber, req.Name, req.ClassName)
	if err != nil {
		h.respondError(c, err)
		return
	}

	added, err := h.Roster.AddStudent(*student)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !added {
		c.JSON(http.StatusConflict, gin.H{"error": "A student with this roll number already exists"})
		return
	}
	c.JSON(http.StatusCreated, h.view(*student))
}

// GetStudent handles GET /api/students/:roll
func (h *APIHandler) GetStudent(c *gin.Context) {
	student, ok := h.Roster.GetStudent(c.Param("roll"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}
	c.JSON(http.StatusOK, h.view(student))
}

// RemoveStudent handles DELETE /api/students/:roll
func (h *APIHandler) RemoveStudent(c *gin.Context) {
	if err := h.Roster.RemoveStudent(c.Param("roll")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddMark handles POST /api/students/:roll/marks
func (h *APIHandler) AddMark(c *gin.Context) {
	var req addMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.MarksObtained == nil || req.MaxMarks == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "marksObtained and maxMarks are required"})
		return
	}

	roll := c.Param("roll")
	if err := h.Roster.AddMarkToStudent(roll, req.Subject, *req.MarksObtained, *req.MaxMarks); err != nil {
		h.respondError(c, err)
		return
	}
	student, _ := h.Roster.GetStudent(roll)
	c.JSON(http.StatusCreated, h.view(student))
}

// StudentReport handles GET /api/students/:roll/report
func (h *APIHandler) StudentReport(c *gin.Context) {
	student, ok := h.Roster.GetStudent(c.Param("roll"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}
	c.String(http.StatusOK, h.Engine.StudentReport(student).String())
}

// --- Analytics Handlers ---

// Analytics handles GET /api/analytics
func (h *APIHandler) Analytics(c *gin.Context) {
	engine, err := h.engineFor(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, engine.Summarize(h.Roster.ListStudents()))
}

// AnalyticsReport handles GET /api/analytics/report
func (h *APIHandler) AnalyticsReport(c *gin.Context) {
	engine, err := h.engineFor(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.String(http.StatusOK, engine.Summarize(h.Roster.ListStudents()).String())
}

// engineFor applies the optional top and threshold query overrides
func (h *APIHandler) engineFor(c *gin.Context) (*analytics.Engine, error) {
	engine := *h.Engine
	if v := c.Query("top"); v != "" {
		top, err := strconv.Atoi(v)
		if err != nil || top < 0 {
			return nil, errors.New("top must be a non-negative integer")
		}
		engine.TopN = top
	}
	if v := c.Query("threshold"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(threshold) || threshold < 0 || threshold > 100 {
			return nil, errors.New("threshold must be a number between 0 and 100")
		}
		engine.AttentionThreshold = threshold
	}
	return &engine, nil
}

// --- Import / Export Handlers ---

// ImportStudents handles POST /api/import/students
func (h *APIHandler) ImportStudents(c *gin.Context) {
	className := c.PostForm("className")

	// "file" is the name attribute in the form
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	_ = level.Info(h.Logger).Log("msg", "received file upload", "file", header.Filename, "class", className)

	students, skipped, err := db.ImportStudentsFromExcel(file, className, h.Logger)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read spreadsheet: " + err.Error()})
		return
	}
	imported, err := h.Roster.ImportStudents(students)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Import successful",
		"importedCount": imported,
		"existingCount": len(students) - imported,
		"skippedRows":   skipped,
	})
}

// ExportStudents handles GET /api/export/students.xlsx
func (h *APIHandler) ExportStudents(c *gin.Context) {
	f, err := db.ExportWorkbook(h.Roster.ListStudents(), h.Engine.Scale)
	if err != nil {
		_ = level.Error(h.Logger).Log("msg", "error building workbook", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export students"})
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		_ = level.Error(h.Logger).Log("msg", "error writing workbook", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export students"})
		return
	}
	filename := "students_" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// respondError maps roster and validation errors to status codes
func (h *APIHandler) respondError(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "fields": verr.Fields})
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, roster.ErrStudentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
	case errors.Is(err, roster.ErrPersistence):
		_ = level.Error(h.Logger).Log("msg", "persistence failure", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save data"})
	default:
		_ = level.Error(h.Logger).Log("msg", "unexpected error", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
