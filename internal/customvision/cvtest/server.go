// Package cvtest runs an in-process fake of the Custom Vision training API
// for tests.
package cvtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"ftai-trainer/internal/customvision"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const TrainingKey = "test-training-key"

type UploadedImage struct {
	Filename string
	Data     []byte
	TagIds   []string
}

type Server struct {
	*httptest.Server

	mu         sync.Mutex
	domains    []customvision.Domain
	projects   []customvision.Project
	tags       map[string][]customvision.Tag
	images     map[string][]UploadedImage
	iterations map[string]*customvision.Iteration
	statuses   []string
	statusIdx  int
	requests   int
}

// NewServer starts a fake service. Trained iterations report statuses in
// order, one per train or get call, and stay on the last one.
func NewServer(statuses ...string) *Server {
	if len(statuses) == 0 {
		statuses = []string{customvision.IterationCompleted}
	}

	s := &Server{
		domains: []customvision.Domain{
			{Id: uuid.NewString(), Name: "General", Type: "Classification", Enabled: true},
			{Id: uuid.NewString(), Name: "General (compact)", Type: "Classification", Exportable: true, Enabled: true},
		},
		tags:       map[string][]customvision.Tag{},
		images:     map[string][]UploadedImage{},
		iterations: map[string]*customvision.Iteration{},
		statuses:   statuses,
	}

	r := chi.NewRouter()
	r.Use(s.countRequests, s.checkKey)
	r.Route("/customvision/v2.2/Training", func(r chi.Router) {
		r.Get("/domains", s.getDomains)
		r.Get("/projects", s.getProjects)
		r.Post("/projects", s.createProject)
		r.Get("/projects/{projectId}/tags", s.getTags)
		r.Post("/projects/{projectId}/tags", s.createTag)
		r.Post("/projects/{projectId}/images", s.createImages)
		r.Post("/projects/{projectId}/train", s.train)
		r.Get("/projects/{projectId}/iterations/{iterationId}", s.getIteration)
		r.Patch("/projects/{projectId}/iterations/{iterationId}", s.updateIteration)
	})

	s.Server = httptest.NewServer(r)
	return s
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Training-Key") != TrainingKey {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "Access denied due to invalid subscription key.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, customvision.APIError{Code: code, Message: message})
}

func (s *Server) hasProject(id string) bool {
	for _, p := range s.projects {
		if p.Id == id {
			return true
		}
	}
	return false
}

func (s *Server) getDomains(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.domains)
}

func (s *Server) getProjects(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	projects := s.projects
	if projects == nil {
		projects = []customvision.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query()
	if q.Get("name") == "" {
		writeError(w, http.StatusBadRequest, "BadRequestProjectName", "project name is required")
		return
	}

	project := customvision.Project{
		Id:           uuid.NewString(),
		Name:         q.Get("name"),
		Description:  q.Get("description"),
		Settings:     customvision.ProjectSettings{DomainId: q.Get("domainId")},
		Created:      time.Now().UTC(),
		LastModified: time.Now().UTC(),
	}
	s.projects = append(s.projects, project)
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) getTags(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectId := chi.URLParam(r, "projectId")
	if !s.hasProject(projectId) {
		writeError(w, http.StatusNotFound, "BadRequestProjectNotFound", "project not found")
		return
	}
	tags := s.tags[projectId]
	if tags == nil {
		tags = []customvision.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectId := chi.URLParam(r, "projectId")
	if !s.hasProject(projectId) {
		writeError(w, http.StatusNotFound, "BadRequestProjectNotFound", "project not found")
		return
	}

	name := r.URL.Query().Get("name")
	for _, tag := range s.tags[projectId] {
		if tag.Name == name {
			writeError(w, http.StatusBadRequest, "BadRequestTagNameNotUnique", "tag name already exists")
			return
		}
	}

	tag := customvision.Tag{Id: uuid.NewString(), Name: name}
	s.tags[projectId] = append(s.tags[projectId], tag)
	writeJSON(w, http.StatusOK, tag)
}

func (s *Server) createImages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectId := chi.URLParam(r, "projectId")
	if !s.hasProject(projectId) {
		writeError(w, http.StatusNotFound, "BadRequestProjectNotFound", "project not found")
		return
	}

	var tagIds []string
	if raw := r.URL.Query().Get("tagIds"); raw != "" {
		tagIds = strings.Split(raw, ",")
	}
	for _, id := range tagIds {
		if !s.hasTag(projectId, id) {
			writeError(w, http.StatusBadRequest, "BadRequestTagNotFound", "tag "+id+" not found")
			return
		}
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequestImageBatch", err.Error())
		return
	}

	summary := customvision.ImageCreateSummary{IsBatchSuccessful: true}
	for _, headers := range r.MultipartForm.File {
		for _, header := range headers {
			file, err := header.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "BadRequestImageBatch", err.Error())
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, "BadRequestImageBatch", err.Error())
				return
			}

			s.images[projectId] = append(s.images[projectId], UploadedImage{Filename: header.Filename, Data: data, TagIds: tagIds})
			s.bumpTagCounts(projectId, tagIds)
			summary.Images = append(summary.Images, customvision.ImageCreateResult{
				SourceUrl: header.Filename,
				Status:    "OK",
				Image:     &customvision.Image{Id: uuid.NewString(), Created: time.Now().UTC()},
			})
		}
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) hasTag(projectId, tagId string) bool {
	for _, tag := range s.tags[projectId] {
		if tag.Id == tagId {
			return true
		}
	}
	return false
}

func (s *Server) bumpTagCounts(projectId string, tagIds []string) {
	for i, tag := range s.tags[projectId] {
		for _, id := range tagIds {
			if tag.Id == id {
				s.tags[projectId][i].ImageCount++
			}
		}
	}
}

func (s *Server) nextStatus() string {
	status := s.statuses[min(s.statusIdx, len(s.statuses)-1)]
	s.statusIdx++
	return status
}

func (s *Server) train(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectId := chi.URLParam(r, "projectId")
	if !s.hasProject(projectId) {
		writeError(w, http.StatusNotFound, "BadRequestProjectNotFound", "project not found")
		return
	}
	if len(s.images[projectId]) == 0 {
		writeError(w, http.StatusBadRequest, "BadRequestTrainingNotNeeded", "nothing changed since last training")
		return
	}

	iteration := &customvision.Iteration{
		Id:           uuid.NewString(),
		Name:         "Iteration " + uuid.NewString()[:8],
		Status:       s.nextStatus(),
		Created:      time.Now().UTC(),
		LastModified: time.Now().UTC(),
		ProjectId:    projectId,
	}
	s.iterations[iteration.Id] = iteration
	writeJSON(w, http.StatusOK, iteration)
}

func (s *Server) getIteration(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	iteration, ok := s.iterations[chi.URLParam(r, "iterationId")]
	if !ok || iteration.ProjectId != chi.URLParam(r, "projectId") {
		writeError(w, http.StatusNotFound, "BadRequestIterationNotFound", "iteration not found")
		return
	}
	iteration.Status = s.nextStatus()
	writeJSON(w, http.StatusOK, iteration)
}

func (s *Server) updateIteration(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	iteration, ok := s.iterations[chi.URLParam(r, "iterationId")]
	if !ok || iteration.ProjectId != chi.URLParam(r, "projectId") {
		writeError(w, http.StatusNotFound, "BadRequestIterationNotFound", "iteration not found")
		return
	}

	var body struct {
		IsDefault *bool `json:"isDefault"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequestInvalidBody", err.Error())
		return
	}

	if body.IsDefault != nil {
		if *body.IsDefault && iteration.Status != customvision.IterationCompleted {
			writeError(w, http.StatusBadRequest, "BadRequestIterationNotCompleted", "iteration is not completed")
			return
		}
		if *body.IsDefault {
			for _, other := range s.iterations {
				if other.ProjectId == iteration.ProjectId {
					other.IsDefault = false
				}
			}
		}
		iteration.IsDefault = *body.IsDefault
	}
	writeJSON(w, http.StatusOK, iteration)
}

func (s *Server) Projects() []customvision.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]customvision.Project(nil), s.projects...)
}

func (s *Server) Tags(projectId string) []customvision.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]customvision.Tag(nil), s.tags[projectId]...)
}

func (s *Server) Images(projectId string) []UploadedImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]UploadedImage(nil), s.images[projectId]...)
}

func (s *Server) Iteration(id string) (customvision.Iteration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.iterations[id]
	if !ok {
		return customvision.Iteration{}, false
	}
	return *it, true
}

func (s *Server) DefaultIterations(projectId string) []customvision.Iteration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []customvision.Iteration
	for _, it := range s.iterations {
		if it.ProjectId == projectId && it.IsDefault {
			out = append(out, *it)
		}
	}
	return out
}

// Requests is the number of requests served so far, including rejected ones.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}
