package interests

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/controller"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/plugin/route/apierror"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/security"
)

// notInterest is the status-update count reported for a target the requester
// does not follow.
const notInterest = -1

// MountRoutes mounts interest and status-update routes.
func MountRoutes(r *gin.Engine, ctl *controller.Controller) {
	g := r.Group("/v1", security.RequireUser())

	g.POST("/interests/users/:name", func(c *gin.Context) {
		respond(c, ctl.AddUserInterest(apierror.Requester(c), c.Param("name")))
	})
	g.DELETE("/interests/users/:name", func(c *gin.Context) {
		respond(c, ctl.RemoveUserInterest(apierror.Requester(c), c.Param("name")))
	})
	g.POST("/interests/conversations/:title", func(c *gin.Context) {
		respond(c, ctl.AddConversationInterest(apierror.Requester(c), c.Param("title")))
	})
	g.DELETE("/interests/conversations/:title", func(c *gin.Context) {
		respond(c, ctl.RemoveConversationInterest(apierror.Requester(c), c.Param("title")))
	})

	g.GET("/status/conversations/:title", func(c *gin.Context) {
		count, ok := ctl.ConversationStatusUpdate(apierror.Requester(c), c.Param("title"))
		if !ok {
			count = notInterest
		}
		c.JSON(http.StatusOK, gin.H{"title": c.Param("title"), "count": count})
	})
	g.GET("/status/users/:name", func(c *gin.Context) {
		convs, ok := ctl.UserStatusUpdate(apierror.Requester(c), c.Param("name"))
		titles := make([]string, 0, len(convs))
		for _, h := range convs {
			titles = append(titles, h.Title)
		}
		c.JSON(http.StatusOK, gin.H{"name": c.Param("name"), "interest": ok, "conversations": titles})
	})
}

func respond(c *gin.Context, err error) {
	if err != nil {
		apierror.Handle(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
