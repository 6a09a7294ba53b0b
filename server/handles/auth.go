package handles

import (
	"github.com/gin-gonic/gin"

	"github.com/shareporter/shareporter/internal/conf"
	"github.com/shareporter/shareporter/internal/db"
	"github.com/shareporter/shareporter/server/common"
)

type LoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks the admin credentials and hands back the token admin
// endpoints expect in X-Admin-Token.
func Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBind(&req); err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	values, err := db.GetSettings()
	if err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	if req.Username != values[conf.AdminUsername] || req.Password != values[conf.AdminPassword] {
		common.ErrorStrResp(c, "wrong username or password", 401)
		return
	}
	common.SuccessResp(c, gin.H{"token": values[conf.AdminPassword]})
}
