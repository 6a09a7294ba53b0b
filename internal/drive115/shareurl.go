package drive115

import (
	"regexp"

	"github.com/pkg/errors"
)

var (
	shareCodeRe = regexp.MustCompile(`(?i)/s/([a-z0-9]+)`)
	passwordRe  = regexp.MustCompile(`[?&]password=([^&#]+)`)
)

// ExtractShareCode pulls the share code and optional embedded password out
// of a share URL like "https://115.com/s/swabcdef?password=xyz".
func ExtractShareCode(shareURL string) (code, password string, err error) {
	if shareURL == "" {
		return "", "", errors.New("share url is empty")
	}
	m := shareCodeRe.FindStringSubmatch(shareURL)
	if m == nil {
		return "", "", errors.Errorf("unrecognized share url: %s", shareURL)
	}
	code = m[1]
	if pm := passwordRe.FindStringSubmatch(shareURL); pm != nil {
		password = pm[1]
	}
	return code, password, nil
}
