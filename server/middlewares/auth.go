package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/shareporter/shareporter/internal/conf"
	"github.com/shareporter/shareporter/internal/db"
	"github.com/shareporter/shareporter/server/common"
)

// AdminRequired gates admin endpoints on the X-Admin-Token header matching
// the configured admin password.
func AdminRequired(c *gin.Context) {
	values, err := db.GetSettings()
	if err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	token := c.GetHeader("X-Admin-Token")
	if token == "" || token != values[conf.AdminPassword] {
		common.ErrorStrResp(c, "admin privileges required", 403)
		return
	}
	c.Next()
}
