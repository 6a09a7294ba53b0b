package handles

import (
	"github.com/gin-gonic/gin"

	"github.com/shareporter/shareporter/internal/bootstrap"
	"github.com/shareporter/shareporter/internal/conf"
	"github.com/shareporter/shareporter/internal/db"
	"github.com/shareporter/shareporter/internal/model"
	"github.com/shareporter/shareporter/internal/op"
	"github.com/shareporter/shareporter/server/common"
)

func GetSettings(c *gin.Context) {
	values, err := db.GetSettings()
	if err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	common.SuccessResp(c, values)
}

// PublicSettings exposes the subset the UI needs before login: the cron
// switch and the category display names.
func PublicSettings(c *gin.Context) {
	values, err := db.GetSettings()
	if err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	out := gin.H{"enable_cron": values[conf.EnableCron] == "true"}
	for _, cat := range model.Categories {
		key := conf.CategoryNameKey(cat)
		out[key] = values[key]
	}
	common.SuccessResp(c, out)
}

// SaveSettings upserts the posted keys. A new 115 cookie is validated
// against the provider before being stored; flipping the cron switch
// resyncs the schedule.
func SaveSettings(c *gin.Context) {
	var updates map[string]string
	if err := c.ShouldBind(&updates); err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	before, err := db.GetSettings()
	if err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	if cookie, ok := updates[conf.Cookie115]; ok && cookie != "" && cookie != before[conf.Cookie115] {
		name, err := bootstrap.Drive115.UserInfo(c.Request.Context(), cookie)
		if err != nil {
			common.ErrorResp(c, err, 400)
			return
		}
		updates[conf.UserName115] = name
	}
	if err := db.SaveSettings(updates); err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	if after, ok := updates[conf.EnableCron]; ok && after != before[conf.EnableCron] {
		op.ResyncCron()
	}
	values, err := db.GetSettings()
	if err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	common.SuccessResp(c, values)
}

// ListFolders lists subfolders of a drive directory for the category
// picker in the admin UI.
func ListFolders(c *gin.Context) {
	values, err := db.GetSettings()
	if err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	cookie := values[conf.Cookie115]
	if cookie == "" {
		common.ErrorStrResp(c, "no 115 cookie configured", 400)
		return
	}
	cid := c.DefaultQuery("cid", "0")
	items, err := bootstrap.Drive115.ListFolder(c.Request.Context(), cookie, cid, 0)
	if err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	type folder struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	folders := make([]folder, 0)
	for _, it := range items {
		if it.IsDir {
			folders = append(folders, folder{ID: it.ID, Name: it.Name})
		}
	}
	common.SuccessResp(c, folders)
}
