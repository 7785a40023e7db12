package session

import "strings"

// Access controls who may reach a route.
type Access int

const (
	// Public routes are reachable in every state.
	Public Access = iota
	// Authenticated routes are reachable only with a valid session.
	Authenticated
)

func (a Access) String() string {
	if a == Authenticated {
		return "authenticated"
	}
	return "public"
}

// Route is one entry of the route table. Pattern segments starting with
// ':' capture a path parameter; a trailing "*" captures the rest.
type Route struct {
	Name    string
	Pattern string
	Access  Access
}

// Outcome explains a routing decision.
type Outcome string

const (
	OutcomeAllowed         Outcome = "allowed"
	OutcomeUnauthenticated Outcome = "unauthenticated"
	OutcomeNotFound        Outcome = "not_found"
)

// Decision is the result of evaluating a path against the route table.
// Denied and unmatched paths both render the same not-found view.
type Decision struct {
	Path    string
	Route   Route
	Params  map[string]string
	Outcome Outcome
}

// Allowed reports whether the target view may be rendered.
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllowed
}

type compiledRoute struct {
	route    Route
	segments []string
}

// RouteTable is an ordered list of routes; the first match wins.
type RouteTable struct {
	routes []compiledRoute
}

// NewRouteTable compiles routes in order.
func NewRouteTable(routes ...Route) *RouteTable {
	t := &RouteTable{routes: make([]compiledRoute, 0, len(routes))}
	for _, r := range routes {
		t.routes = append(t.routes, compiledRoute{route: r, segments: splitPath(r.Pattern)})
	}
	return t
}

// Routes returns the table's routes in match order.
func (t *RouteTable) Routes() []Route {
	out := make([]Route, 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, r.route)
	}
	return out
}

// Match finds the first route whose pattern matches path.
func (t *RouteTable) Match(path string) (Route, map[string]string, bool) {
	segments := splitPath(path)
	for _, r := range t.routes {
		if params, ok := matchSegments(r.segments, segments); ok {
			return r.route, params, true
		}
	}
	return Route{}, nil, false
}

// Resolve evaluates path for a session that is (or is not) authenticated.
func (t *RouteTable) Resolve(path string, authenticated bool) Decision {
	route, params, ok := t.Match(path)
	if !ok {
		return Decision{Path: path, Outcome: OutcomeNotFound}
	}
	if route.Access == Authenticated && !authenticated {
		return Decision{Path: path, Route: route, Outcome: OutcomeUnauthenticated}
	}
	return Decision{Path: path, Route: route, Params: params, Outcome: OutcomeAllowed}
}

func splitPath(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// matchSegments matches literal and ":name" segments one to one. A final
// "*" segment matches whatever remains, possibly nothing, and is reported
// as the "*" param.
func matchSegments(pattern, path []string) (map[string]string, bool) {
	params := map[string]string{}
	if n := len(pattern); n > 0 && pattern[n-1] == "*" {
		if len(path) < n-1 {
			return nil, false
		}
		params["*"] = strings.Join(path[n-1:], "/")
		pattern, path = pattern[:n-1], path[:n-1]
	}
	if len(pattern) != len(path) {
		return nil, false
	}
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			if path[i] == "" {
				return nil, false
			}
			params[seg[1:]] = path[i]
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}
	return params, true
}
