package conf

import (
	"fmt"
	"strings"

	"github.com/shareporter/shareporter/internal/model"
)

// Setting keys. Admin-mutable, persisted as key/value rows.
const (
	Cookie115     = "cookie_115"
	UserName115   = "user_name_115"
	AdminUsername = "admin_username"
	AdminPassword = "admin_password"

	OpenListURL         = "ol_url"
	OpenListToken       = "ol_token"
	OpenListMountPrefix = "ol_mount_prefix"
	Root115Path         = "root_115_path"

	EnableCron = "enable_cron"
)

func CategoryCidKey(c model.Category) string {
	return fmt.Sprintf("cat_%s_cid", c)
}

func CategoryNameKey(c model.Category) string {
	return fmt.Sprintf("cat_%s_name", c)
}

func CategoryPathKey(c model.Category) string {
	return fmt.Sprintf("cat_%s_path", c)
}

// DefaultSettings returns the baseline settings map; stored rows are merged
// over it so new keys pick up defaults without a migration.
func DefaultSettings() map[string]string {
	d := map[string]string{
		Cookie115:           "",
		UserName115:         "",
		AdminUsername:       "admin",
		AdminPassword:       "admin123",
		OpenListURL:         "",
		OpenListToken:       "",
		OpenListMountPrefix: "",
		Root115Path:         "",
		EnableCron:          "false",
	}
	names := map[model.Category]string{
		model.CategoryTV:      "电视剧",
		model.CategoryMovie:   "电影",
		model.CategoryVariety: "综艺",
		model.CategoryAnime:   "动漫",
		model.CategoryOther:   "其他",
	}
	for _, c := range model.Categories {
		d[CategoryCidKey(c)] = "0"
		d[CategoryNameKey(c)] = names[c]
		d[CategoryPathKey(c)] = ""
	}
	return d
}

// CategoryTarget is where one category's transfers land: the drive folder
// id plus the equivalent path on the index-service side.
type CategoryTarget struct {
	Cid       string
	Name      string
	IndexPath string
}

// Snapshot is an immutable view of the settings captured at the start of a
// reconcile pass, so a concurrent settings update cannot change behavior
// mid-pass.
type Snapshot struct {
	Cookie        string
	AdminUsername string
	AdminPassword string

	Categories map[model.Category]CategoryTarget

	OpenListURL   string
	OpenListToken string
	MountPrefix   string
	RootPath      string

	CronEnabled bool
}

// BuildSnapshot converts raw settings rows into a typed snapshot. The
// caller is expected to pass values already merged over DefaultSettings.
func BuildSnapshot(values map[string]string) Snapshot {
	snap := Snapshot{
		Cookie:        values[Cookie115],
		AdminUsername: values[AdminUsername],
		AdminPassword: values[AdminPassword],
		OpenListURL:   strings.TrimRight(values[OpenListURL], "/"),
		OpenListToken: strings.TrimSpace(values[OpenListToken]),
		MountPrefix:   values[OpenListMountPrefix],
		RootPath:      values[Root115Path],
		CronEnabled:   values[EnableCron] == "true",
		Categories:    make(map[model.Category]CategoryTarget, len(model.Categories)),
	}
	for _, c := range model.Categories {
		snap.Categories[c] = CategoryTarget{
			Cid:       values[CategoryCidKey(c)],
			Name:      values[CategoryNameKey(c)],
			IndexPath: values[CategoryPathKey(c)],
		}
	}
	return snap
}

// Target resolves a category's destination, falling back to the drive root
// for unknown or unconfigured categories.
func (s Snapshot) Target(c model.Category) CategoryTarget {
	if t, ok := s.Categories[c]; ok && t.Cid != "" {
		return t
	}
	return CategoryTarget{Cid: "0", Name: "根目录"}
}
