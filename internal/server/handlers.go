package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/biomap/internal/curate"
	"github.com/ppiankov/biomap/internal/model"
)

// predictionView is one row of the predictions table
type predictionView struct {
	Position   int                   `json:"position"`
	Mapping    model.SemanticMapping `json:"mapping"`
	SubjectURL string                `json:"subject_url,omitempty"`
	ObjectURL  string                `json:"object_url,omitempty"`
}

func (s *Server) link(ref model.Reference) string {
	if s.resolverBase == "" {
		return ""
	}
	return s.resolverBase + "/" + ref.CURIE()
}

// handlePredictions lists unmarked predictions matching the query string
func (s *Server) handlePredictions(c *gin.Context) {
	var q curate.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		handleError(c, fmt.Errorf("%w: %w", ErrInvalidInput, err))
		return
	}

	entries, err := s.controller.Entries(q)
	if err != nil {
		handleError(c, err)
		return
	}
	total, err := s.controller.CountPredictions(q)
	if err != nil {
		handleError(c, err)
		return
	}

	views := make([]predictionView, len(entries))
	for i, e := range entries {
		views[i] = predictionView{
			Position:   e.Position,
			Mapping:    e.Mapping,
			SubjectURL: s.link(e.Mapping.Subject),
			ObjectURL:  s.link(e.Mapping.Object),
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"total":       total,
		"offset":      q.Offset,
		"predictions": views,
	})
}

// handleSummary reports session progress and prefix pairs for the query
func (s *Server) handleSummary(c *gin.Context) {
	var q curate.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		handleError(c, fmt.Errorf("%w: %w", ErrInvalidInput, err))
		return
	}

	pairs, err := s.controller.PrefixPairCounts(q)
	if err != nil {
		handleError(c, err)
		return
	}
	marks, added := s.controller.Pending()
	c.JSON(http.StatusOK, gin.H{
		"user":      s.controller.User(),
		"remaining": s.controller.TotalPredictions(),
		"curated":   s.controller.TotalCurated(),
		"pending":   gin.H{"marks": marks, "added": added},
		"pairs":     pairs,
	})
}

// handleMark records a disposition and persists it immediately
func (s *Server) handleMark(c *gin.Context) {
	position, err := strconv.Atoi(c.Param("position"))
	if err != nil {
		handleError(c, NewAppError(http.StatusBadRequest, "Invalid position", err))
		return
	}
	d, err := model.ParseDisposition(c.Param("value"))
	if err != nil {
		handleError(c, err)
		return
	}

	if err := s.controller.Mark(position, d); err != nil {
		handleError(c, err)
		return
	}
	if err := s.controller.Persist(); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"position":    position,
		"disposition": d,
		"remaining":   s.controller.TotalPredictions(),
	})
}

type addMappingRequest struct {
	Subject string `json:"subject" binding:"required"`
	Object  string `json:"object" binding:"required"`
}

// handleAddMapping stores a manually entered exact match in the positive set
func (s *Server) handleAddMapping(c *gin.Context) {
	var req addMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	subject, err := model.ParseCURIE(req.Subject)
	if err != nil {
		handleError(c, err)
		return
	}
	object, err := model.ParseCURIE(req.Object)
	if err != nil {
		handleError(c, err)
		return
	}

	if err := s.controller.AddMapping(subject, object); err != nil {
		handleError(c, err)
		return
	}
	if err := s.controller.Persist(); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subject": subject.CURIE(), "object": object.CURIE()})
}

// handlePersist flushes pending marks and additions
func (s *Server) handlePersist(c *gin.Context) {
	marks, added := s.controller.Pending()
	if err := s.controller.Persist(); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"persisted": marks + added})
}
