package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/controller"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/plugin/route/apierror"
)

// MountRoutes mounts user routes. Registration is open: no identity is needed
// to create a user.
func MountRoutes(r *gin.Engine, ctl *controller.Controller) {
	g := r.Group("/v1")

	g.POST("/users", func(c *gin.Context) {
		createUser(c, ctl)
	})
	g.GET("/users", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": ctl.Users()})
	})
	g.GET("/users/:name", func(c *gin.Context) {
		getUser(c, ctl)
	})
}

func createUser(c *gin.Context, ctl *controller.Controller) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.BadRequest(c, err)
		return
	}
	u, err := ctl.NewUser(req.Name)
	if err != nil {
		apierror.Handle(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func getUser(c *gin.Context, ctl *controller.Controller) {
	name := c.Param("name")
	u, ok := ctl.UserByName(name)
	if !ok {
		apierror.Handle(c, &controller.NotFoundError{Resource: "user", ID: name})
		return
	}
	c.JSON(http.StatusOK, u)
}
