package ops

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hpungsan/packlist/internal/checklist"
	"github.com/hpungsan/packlist/internal/errors"
	"github.com/hpungsan/packlist/internal/share"
)

// ShareURL encodes the current checklist into a link under base. An empty
// base falls back to share_base_url, then to the local web UI address.
// A checklist without a destination city cannot be shared.
func (a *App) ShareURL(base string) (string, error) {
	s := a.State()
	if strings.TrimSpace(s.Trip.City) == "" {
		return "", errors.NewEmptyInput("city")
	}
	if base == "" {
		base = a.shareBase()
	}
	link, err := share.URL(base, s)
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid share base URL: %v", err))
	}
	operationsTotal.WithLabelValues("share").Inc()
	return link, nil
}

func (a *App) shareBase() string {
	if a.cfg.ShareBaseURL != "" {
		return a.cfg.ShareBaseURL
	}
	return fmt.Sprintf("http://%s:%d/", a.cfg.WebBind, a.cfg.WebPort)
}

// OpenShared replaces the checklist with the one carried by a share link's
// query. The modern "s" parameter wins over the legacy "state" one. An
// undecodable payload leaves the checklist untouched.
func (a *App) OpenShared(q url.Values) (checklist.State, error) {
	decoded, ok := share.Decode(q)
	if !ok {
		return a.State(), errors.NewDecodeFailure("share link could not be decoded")
	}
	a.ctl.Cancel()
	return a.update("share_open", func(checklist.State) (checklist.State, error) {
		return checklist.Init(decoded, a.defaultTrip()), nil
	})
}

// OpenShareLink parses a full share link (or a bare query string) and opens it.
func (a *App) OpenShareLink(link string) (checklist.State, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return a.State(), errors.NewEmptyInput("share link")
	}
	raw := link
	if u, err := url.Parse(link); err == nil && (u.RawQuery != "" || u.Scheme != "") {
		raw = u.RawQuery
	}
	q, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return a.State(), errors.NewDecodeFailure(fmt.Sprintf("invalid share link: %v", err))
	}
	return a.OpenShared(q)
}
