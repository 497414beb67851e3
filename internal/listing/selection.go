package listing

import (
	"strings"

	"github.com/zjrosen/portal/internal/portal"
)

// AllAccounts stands for the viewer's default site.
const AllAccounts = "ALL"

// SelectedAccountKey is the session store key the chosen account is kept under.
const SelectedAccountKey = "selected_account"

// SessionStore is a key/value store scoped to the signed-in session.
type SessionStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Selection is the account, result type and 1-based page being viewed.
type Selection struct {
	account    string
	resultType ResultType
	page       int
	store      SessionStore
}

// NewSelection starts at page 1 with the account restored by ResolveInitialAccount.
func NewSelection(store SessionStore, sites []portal.Site, rt ResultType) Selection {
	if rt != Order {
		rt = Quote
	}
	s := Selection{
		account:    ResolveInitialAccount(store, sites),
		resultType: rt,
		page:       1,
		store:      store,
	}
	s.persist()
	return s
}

func (s Selection) Account() string        { return s.account }
func (s Selection) ResultType() ResultType { return s.resultType }
func (s Selection) Page() int              { return s.page }

// SetAccount switches account and resets the page. It reports whether the account changed.
func (s *Selection) SetAccount(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		id = AllAccounts
	}
	changed := id != s.account
	s.account = id
	s.page = 1
	s.persist()
	return changed
}

// SetResultType switches tab and resets the page. It reports whether the type changed.
func (s *Selection) SetResultType(rt ResultType) bool {
	changed := rt != s.resultType
	s.resultType = rt
	s.page = 1
	return changed
}

// SetPage sets the page; values below 1 become 1.
func (s *Selection) SetPage(n int) {
	s.page = max(1, n)
}

func (s *Selection) persist() {
	if s.store != nil {
		s.store.Set(SelectedAccountKey, s.account)
	}
}

// ResolveInitialAccount picks the stored account, then the default site,
// then the first site, then AllAccounts.
func ResolveInitialAccount(store SessionStore, sites []portal.Site) string {
	if store != nil {
		if v, ok := store.Get(SelectedAccountKey); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	if site, ok := defaultSite(sites); ok {
		return site.Slug
	}
	return AllAccounts
}

// ResolveLabel maps an account to the label sent as account_name.
// AllAccounts resolves to the default site; with no sites it is ErrNoAccount.
// An unknown slug is sent as-is.
func ResolveLabel(account string, sites []portal.Site) (string, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", ErrNoAccount
	}
	if account == AllAccounts {
		site, ok := defaultSite(sites)
		if !ok {
			return "", ErrNoAccount
		}
		return site.DisplayLabel(), nil
	}
	for _, s := range sites {
		if s.Slug == account {
			return s.DisplayLabel(), nil
		}
	}
	return account, nil
}

// defaultSite is the site flagged default, else the first.
func defaultSite(sites []portal.Site) (portal.Site, bool) {
	for _, s := range sites {
		if s.IsDefault {
			return s, true
		}
	}
	if len(sites) > 0 {
		return sites[0], true
	}
	return portal.Site{}, false
}

// RequestKey identifies one distinct backend query.
type RequestKey struct {
	Label      string
	ResultType ResultType
	Page       int
}

// SameScope reports whether k and other differ at most in page.
func (k RequestKey) SameScope(other RequestKey) bool {
	return k.Label == other.Label && k.ResultType == other.ResultType
}
