package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agenthands/docintel/internal/config"
	"github.com/agenthands/docintel/internal/core/model"
	"github.com/agenthands/docintel/internal/jobs"
)

type QueryAnswerer interface {
	AnswerQuery(ctx context.Context, question string) (*model.Answer, error)
	AnswerQueries(ctx context.Context, questions []string) ([]*model.Answer, error)
}

type JobQueue interface {
	Enqueue(ctx context.Context, p jobs.Payload) (string, error)
	Status(ctx context.Context, id string) (jobs.Job, error)
}

type Server struct {
	Config  config.ServerConfig
	Answers QueryAnswerer
	Jobs    JobQueue
}

func NewServer(cfg config.ServerConfig, answers QueryAnswerer, queue JobQueue) *Server {
	return &Server{Config: cfg, Answers: answers, Jobs: queue}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()
	if s.Config.MaxUploadMB > 0 {
		r.MaxMultipartMemory = int64(s.Config.MaxUploadMB) << 20
	}

	r.GET("/", s.Root)

	api := r.Group("/")
	api.Use(s.RequireToken())
	api.POST("/upload", s.Upload)
	api.GET("/tasks/:task_id", s.TaskStatus)
	api.POST("/query", s.Query)
	api.POST("/hackrx/run", s.Run)

	return r
}

// RequireToken rejects requests without the configured bearer token. With no token
// configured every request passes.
func (s *Server) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.Config.APIToken == "" {
			c.Next()
			return
		}
		scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if !ok || scheme != "Bearer" || subtle.ConstantTimeCompare([]byte(token), []byte(s.Config.APIToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing API key"})
			return
		}
		c.Next()
	}
}

func (s *Server) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the HackRx Document Intelligence API"})
}

func (s *Server) Upload(c *gin.Context) {
	if s.Config.MaxUploadMB > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(s.Config.MaxUploadMB)<<20)
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or unreadable 'file' field"})
		return
	}

	name := filepath.Base(file.Filename)
	if err := os.MkdirAll(s.Config.UploadDir, 0o755); err != nil {
		log.Printf("Failed to create upload dir: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}
	path := filepath.Join(s.Config.UploadDir, fmt.Sprintf("%s_%s", uuid.New().String(), name))
	if err := c.SaveUploadedFile(file, path); err != nil {
		log.Printf("Failed to save upload %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}

	id, err := s.Jobs.Enqueue(c.Request.Context(), jobs.Payload{FilePath: path, FileName: name})
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, jobs.ErrQueueFull) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Too many documents in progress, retry later", "task_id": id})
			return
		}
		log.Printf("Failed to enqueue %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule processing"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id":  id,
		"filename": name,
		"message":  "File upload successful, processing has started in the background.",
	})
}

func (s *Server) TaskStatus(c *gin.Context) {
	id := c.Param("task_id")
	job, err := s.Jobs.Status(c.Request.Context(), id)
	if errors.Is(err, jobs.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found", "task_id": id})
		return
	}
	if err != nil {
		log.Printf("Failed to read task %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read task status"})
		return
	}

	resp := gin.H{"task_id": job.ID, "status": job.Status}
	switch job.Status {
	case jobs.StatusSuccess:
		resp["result"] = job.Result
	case jobs.StatusFailure:
		resp["error"] = job.Error
	}
	c.JSON(http.StatusOK, resp)
}

type QueryRequest struct {
	Query string `json:"query" binding:"required"`
}

func (s *Server) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ans, err := s.Answers.AnswerQuery(c.Request.Context(), req.Query)
	if err != nil {
		log.Printf("Failed to answer query: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while answering the query"})
		return
	}
	c.JSON(http.StatusOK, ans)
}

type RunRequest struct {
	Documents string   `json:"documents"`
	Questions []string `json:"questions" binding:"required"`
}

type RunResponse struct {
	Answers []string `json:"answers"`
}

// Run answers a batch of questions against everything already ingested. The
// documents field is accepted for compatibility and only logged.
func (s *Server) Run(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Documents != "" {
		log.Printf("Answering %d questions; documents reference %s is not used for filtering", len(req.Questions), req.Documents)
	}

	answers, err := s.Answers.AnswerQueries(c.Request.Context(), req.Questions)
	if err != nil {
		log.Printf("Failed to answer questions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred"})
		return
	}

	resp := RunResponse{Answers: make([]string, 0, len(answers))}
	for _, a := range answers {
		resp.Answers = append(resp.Answers, a.Answer)
	}
	c.JSON(http.StatusOK, resp)
}
