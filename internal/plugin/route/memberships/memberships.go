package memberships

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/controller"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/model"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/plugin/route/apierror"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/security"
)

type accessResponse struct {
	ConversationID uuid.UUID         `json:"conversationId"`
	UserID         uuid.UUID         `json:"userId"`
	AccessLevel    model.AccessLevel `json:"accessLevel"`
}

// MountRoutes mounts join and access-control routes.
func MountRoutes(r *gin.Engine, ctl *controller.Controller) {
	g := r.Group("/v1", security.RequireUser())

	g.POST("/conversations/:conversationId/join", func(c *gin.Context) {
		join(c, ctl)
	})
	g.GET("/conversations/:conversationId/access", func(c *gin.Context) {
		getAccess(c, ctl)
	})
	g.PUT("/conversations/:conversationId/access/:userName", func(c *gin.Context) {
		changeAccess(c, ctl)
	})
	g.GET("/conversations/:conversationId/memberships", func(c *gin.Context) {
		listMembers(c, ctl)
	})
}

func join(c *gin.Context, ctl *controller.Controller) {
	convID, ok := apierror.ConversationID(c)
	if !ok {
		return
	}
	userID := apierror.Requester(c)
	level, err := ctl.JoinConversation(convID, userID)
	if err != nil {
		apierror.Handle(c, err)
		return
	}
	c.JSON(http.StatusOK, accessResponse{ConversationID: convID, UserID: userID, AccessLevel: level})
}

func getAccess(c *gin.Context, ctl *controller.Controller) {
	convID, ok := apierror.ConversationID(c)
	if !ok {
		return
	}
	userID := apierror.Requester(c)
	level, err := ctl.GetAccess(convID, userID)
	if err != nil {
		apierror.Handle(c, err)
		return
	}
	c.JSON(http.StatusOK, accessResponse{ConversationID: convID, UserID: userID, AccessLevel: level})
}

func changeAccess(c *gin.Context, ctl *controller.Controller) {
	convID, ok := apierror.ConversationID(c)
	if !ok {
		return
	}
	var req struct {
		AccessLevel *model.AccessLevel `json:"accessLevel"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.BadRequest(c, err)
		return
	}
	if req.AccessLevel == nil {
		apierror.BadRequest(c, errors.New("accessLevel is required"))
		return
	}
	if err := ctl.ChangeAccess(apierror.Requester(c), c.Param("userName"), *req.AccessLevel, convID); err != nil {
		apierror.Handle(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func listMembers(c *gin.Context, ctl *controller.Controller) {
	convID, ok := apierror.ConversationID(c)
	if !ok {
		return
	}
	members, err := ctl.Members(convID)
	if err != nil {
		apierror.Handle(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": members})
}
