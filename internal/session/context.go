package session

// Context is the derived identity/addressing bundle needed to query a
// given account's backend. Fields are independent: any subset may be empty
// when the page yields no matching signal.
type Context struct {
	AccountID     string `json:"account_id,omitempty"`
	BaseURL       string `json:"base_url,omitempty"`
	AuthToken     string `json:"auth_token,omitempty"`
	SessionID     string `json:"session_id,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// PageProbe supplies the ambient host-page signals extraction reads. Every
// method is best-effort: implementations return "" (or nil) on any failure
// instead of an error, so extraction itself can never fail.
type PageProbe interface {
	// Hostname is the host part of the page address.
	Hostname() string
	// QueryParam returns the named page query parameter, or "".
	QueryParam(name string) string
	// InlineScripts returns the text bodies of the page's inline scripts.
	InlineScripts() []string
	// Cookie returns the named cookie value, or "".
	Cookie(name string) string
	// MetaContent returns the content of the named meta tag, or "".
	MetaContent(name string) string
	// SessionGlobal returns the session value the host page exposes on its
	// well-known global object, or "".
	SessionGlobal() string
	// AuthFormValue returns the first non-empty value among form inputs
	// whose name contains "session", "auth", or "token", or "".
	AuthFormValue() string
}
