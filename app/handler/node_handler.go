package handler

import (
	"net/http"

	"nodemonitor/app/middleware"
	"nodemonitor/internal/model"
	"nodemonitor/internal/service"

	"github.com/gin-gonic/gin"
)

// NodeHandler handles node HTTP requests
type NodeHandler struct {
	nodeService   *service.NodeService
	reconciler    *service.Reconciler
	dashboardBase string
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(nodeService *service.NodeService, reconciler *service.Reconciler, dashboardBase string) *NodeHandler {
	return &NodeHandler{
		nodeService:   nodeService,
		reconciler:    reconciler,
		dashboardBase: dashboardBase,
	}
}

// List lists the user's nodes
// @Summary List nodes
// @Tags nodes
// @Produce json
// @Success 200 {array} model.NodeResponse
// @Router /api/nodes [get]
func (h *NodeHandler) List(c *gin.Context) {
	nodes, err := h.nodeService.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "list nodes")
		return
	}
	c.JSON(http.StatusOK, service.NodeViews(nodes, h.dashboardBase))
}

// Create adds a node to monitor
// @Summary Add node
// @Description Register a Solana node address. Duplicates and addresses that are not valid base58 public keys are rejected.
// @Tags nodes
// @Accept json
// @Produce json
// @Param request body model.CreateNodeRequest true "Node"
// @Success 201 {object} model.NodeResponse
// @Failure 409 {object} map[string]string
// @Router /api/nodes [post]
func (h *NodeHandler) Create(c *gin.Context) {
	var req model.CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, err := h.nodeService.Create(c.Request.Context(), middleware.UserID(c), service.CreateNodeInput{
		Address: req.Address,
		Name:    req.Name,
		GPUType: req.GPUType,
	})
	if err != nil {
		respondError(c, err, "create node")
		return
	}
	c.JSON(http.StatusCreated, service.NodeView(node, h.dashboardBase))
}

// Get returns one node
// @Summary Get node
// @Tags nodes
// @Produce json
// @Param id path string true "Node ID"
// @Success 200 {object} model.NodeResponse
// @Router /api/nodes/{id} [get]
func (h *NodeHandler) Get(c *gin.Context) {
	node, err := h.nodeService.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "get node")
		return
	}
	c.JSON(http.StatusOK, service.NodeView(node, h.dashboardBase))
}

// Update edits a node's name or GPU type
// @Summary Update node
// @Tags nodes
// @Accept json
// @Produce json
// @Param id path string true "Node ID"
// @Param request body model.UpdateNodeRequest true "Fields to change"
// @Success 200 {object} model.NodeResponse
// @Router /api/nodes/{id} [put]
func (h *NodeHandler) Update(c *gin.Context) {
	var req model.UpdateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, err := h.nodeService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), service.UpdateNodeInput{
		Name:    req.Name,
		GPUType: req.GPUType,
	})
	if err != nil {
		respondError(c, err, "update node")
		return
	}
	c.JSON(http.StatusOK, service.NodeView(node, h.dashboardBase))
}

// Delete removes a node with its earnings history
// @Summary Delete node
// @Tags nodes
// @Param id path string true "Node ID"
// @Success 204
// @Router /api/nodes/{id} [delete]
func (h *NodeHandler) Delete(c *gin.Context) {
	if err := h.nodeService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err, "delete node")
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckStatus reconciles one node now
// @Summary Check node status
// @Description Look up the account and dashboard of one node and apply any transition
// @Tags nodes
// @Produce json
// @Param id path string true "Node ID"
// @Success 200 {object} model.NodeResponse
// @Failure 409 {object} map[string]string "refresh already running"
// @Router /api/nodes/{id}/check-status [post]
func (h *NodeHandler) CheckStatus(c *gin.Context) {
	node, err := h.reconciler.RefreshNode(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "check node status")
		return
	}
	c.JSON(http.StatusOK, service.NodeView(node, h.dashboardBase))
}

// RefreshAll reconciles every node of the user
// @Summary Refresh all nodes
// @Tags nodes
// @Produce json
// @Success 200 {object} model.RefreshResponse
// @Failure 409 {object} map[string]string "refresh already running"
// @Router /api/nodes/refresh-all-status [post]
func (h *NodeHandler) RefreshAll(c *gin.Context) {
	resp, err := h.reconciler.RefreshUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "refresh nodes")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StatusAll returns the stored status of every node without refreshing
// @Summary All node status
// @Tags nodes
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/nodes/status/all [get]
func (h *NodeHandler) StatusAll(c *gin.Context) {
	nodes, err := h.nodeService.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "list node status")
		return
	}

	counts := map[string]int{}
	for _, n := range nodes {
		counts[n.Status]++
	}
	c.JSON(http.StatusOK, gin.H{
		"nodes":  service.NodeViews(nodes, h.dashboardBase),
		"total":  len(nodes),
		"counts": counts,
	})
}
