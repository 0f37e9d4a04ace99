package conversations

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/controller"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/plugin/route/apierror"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/security"
)

// MountRoutes mounts conversation and message routes. Listing is open;
// creating conversations and posting messages require an identity.
func MountRoutes(r *gin.Engine, ctl *controller.Controller) {
	open := r.Group("/v1")
	open.GET("/conversations", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": ctl.Conversations()})
	})
	open.GET("/conversations/:conversationId", func(c *gin.Context) {
		getConversation(c, ctl)
	})
	open.GET("/conversations/:conversationId/messages", func(c *gin.Context) {
		listMessages(c, ctl)
	})

	g := r.Group("/v1", security.RequireUser())
	g.POST("/conversations", func(c *gin.Context) {
		createConversation(c, ctl)
	})
	g.POST("/conversations/:conversationId/messages", func(c *gin.Context) {
		createMessage(c, ctl)
	})
}

func getConversation(c *gin.Context, ctl *controller.Controller) {
	convID, ok := apierror.ConversationID(c)
	if !ok {
		return
	}
	h, found := ctl.ConversationByID(convID)
	if !found {
		apierror.Handle(c, &controller.NotFoundError{Resource: "conversation", ID: convID.String()})
		return
	}
	c.JSON(http.StatusOK, h)
}

func createConversation(c *gin.Context, ctl *controller.Controller) {
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.BadRequest(c, err)
		return
	}
	h, err := ctl.NewConversation(req.Title, apierror.Requester(c))
	if err != nil {
		apierror.Handle(c, err)
		return
	}
	c.JSON(http.StatusCreated, h)
}

func listMessages(c *gin.Context, ctl *controller.Controller) {
	convID, ok := apierror.ConversationID(c)
	if !ok {
		return
	}
	msgs, err := ctl.Messages(convID)
	if err != nil {
		apierror.Handle(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

func createMessage(c *gin.Context, ctl *controller.Controller) {
	convID, ok := apierror.ConversationID(c)
	if !ok {
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.BadRequest(c, err)
		return
	}
	msg, err := ctl.NewMessage(apierror.Requester(c), convID, req.Body)
	if err != nil {
		apierror.Handle(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
