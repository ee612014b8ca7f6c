package api

import (
	"errors"
	"net/http"

	"signal-desk/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UpdateNodePositionRequest moves a node on the canvas
type UpdateNodePositionRequest struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

// SetNodeEnabledRequest toggles a node on the canvas
type SetNodeEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// CreateConnectionRequest links two existing nodes
type CreateConnectionRequest struct {
	FromNode string `json:"from_node" binding:"required"`
	ToNode   string `json:"to_node" binding:"required"`
}

// handleGetWorkflow returns the full canvas state
func (s *Server) handleGetWorkflow(c *gin.Context) {
	ctx := c.Request.Context()

	nodes, err := s.repo.ListWorkflowNodes(ctx)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to load workflow nodes")
		return
	}
	connections, err := s.repo.ListWorkflowConnections(ctx)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to load workflow connections")
		return
	}
	if connections == nil {
		connections = []database.WorkflowConnection{}
	}

	successResponse(c, gin.H{
		"nodes":       nodes,
		"connections": connections,
	})
}

// handleUpdateNodePosition persists a node drag
func (s *Server) handleUpdateNodePosition(c *gin.Context) {
	var req UpdateNodePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "x and y are required")
		return
	}

	id := c.Param("id")
	if err := s.repo.UpdateNodePosition(c.Request.Context(), id, *req.X, *req.Y); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			errorResponse(c, http.StatusNotFound, "Node not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to update node position")
		return
	}

	s.eventBus.PublishWorkflowUpdated("node_moved", id)
	successResponse(c, gin.H{"id": id, "x": *req.X, "y": *req.Y})
}

// handleSetNodeEnabled toggles a canvas node
func (s *Server) handleSetNodeEnabled(c *gin.Context) {
	var req SetNodeEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "enabled is required")
		return
	}

	id := c.Param("id")
	if err := s.repo.SetNodeEnabled(c.Request.Context(), id, *req.Enabled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			errorResponse(c, http.StatusNotFound, "Node not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to update node")
		return
	}

	s.eventBus.PublishWorkflowUpdated("node_toggled", id)
	successResponse(c, gin.H{"id": id, "enabled": *req.Enabled})
}

// handleCreateConnection links two nodes. Both endpoints must exist and
// self-loops are rejected.
func (s *Server) handleCreateConnection(c *gin.Context) {
	var req CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "from_node and to_node are required")
		return
	}
	if req.FromNode == req.ToNode {
		errorResponse(c, http.StatusBadRequest, "A node cannot connect to itself")
		return
	}

	ctx := c.Request.Context()
	nodes, err := s.repo.ListWorkflowNodes(ctx)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to load workflow nodes")
		return
	}
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}
	if !known[req.FromNode] || !known[req.ToNode] {
		errorResponse(c, http.StatusNotFound, "Node not found")
		return
	}

	conn := &database.WorkflowConnection{
		ID:       uuid.New().String(),
		FromNode: req.FromNode,
		ToNode:   req.ToNode,
	}
	if err := s.repo.CreateWorkflowConnection(ctx, conn); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to create connection")
		return
	}

	s.eventBus.PublishWorkflowUpdated("connection_created", conn.ID)
	successResponse(c, conn)
}

// handleDeleteConnection removes a link between nodes
func (s *Server) handleDeleteConnection(c *gin.Context) {
	id := c.Param("id")
	if err := s.repo.DeleteWorkflowConnection(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			errorResponse(c, http.StatusNotFound, "Connection not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to delete connection")
		return
	}

	s.eventBus.PublishWorkflowUpdated("connection_deleted", id)
	successResponse(c, gin.H{"id": id, "deleted": true})
}
