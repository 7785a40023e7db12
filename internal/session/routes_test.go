package session_test

import (
	"testing"

	"github.com/securebank/bank-portal/internal/session"
)

func TestRouteTableResolve(t *testing.T) {
	table := session.NewRouteTable(
		session.Route{Name: "home", Pattern: "/"},
		session.Route{Name: "open", Pattern: "/accounts/open/:type", Access: session.Authenticated},
		session.Route{Name: "account", Pattern: "/accounts/:id", Access: session.Authenticated},
	)

	cases := []struct {
		path          string
		authenticated bool
		outcome       session.Outcome
		route         string
	}{
		{"/", false, session.OutcomeAllowed, "home"},
		{"", false, session.OutcomeAllowed, "home"},
		{"/accounts/7?page=2", true, session.OutcomeAllowed, "account"},
		{"/accounts/open/savings", true, session.OutcomeAllowed, "open"},
		{"/accounts/7", false, session.OutcomeUnauthenticated, "account"},
		{"/accounts", true, session.OutcomeNotFound, ""},
		{"/accounts/7/extra", true, session.OutcomeNotFound, ""},
	}
	for _, tc := range cases {
		d := table.Resolve(tc.path, tc.authenticated)
		if d.Outcome != tc.outcome || d.Route.Name != tc.route {
			t.Fatalf("%s (auth=%v): got %s/%s", tc.path, tc.authenticated, d.Outcome, d.Route.Name)
		}
	}

	d := table.Resolve("/accounts/7", true)
	if d.Params["id"] != "7" {
		t.Fatalf("expected id param, got %v", d.Params)
	}
	if d := table.Resolve("/accounts/7", false); d.Params != nil {
		t.Fatalf("denied decision leaked params %v", d.Params)
	}
}

func TestRouteTableFirstMatchWins(t *testing.T) {
	table := session.NewRouteTable(
		session.Route{Name: "literal", Pattern: "/accounts/open"},
		session.Route{Name: "param", Pattern: "/accounts/:id"},
	)
	if route, _, _ := table.Match("/accounts/open"); route.Name != "literal" {
		t.Fatalf("expected literal route, got %s", route.Name)
	}
	if len(table.Routes()) != 2 {
		t.Fatalf("expected two routes")
	}
}

func TestRouteTableWildcardTail(t *testing.T) {
	table := session.NewRouteTable(
		session.Route{Name: "help", Pattern: "/help/*"},
		session.Route{Name: "docs", Pattern: "/accounts/:id/docs/*", Access: session.Authenticated},
	)

	cases := []struct {
		path  string
		route string
		rest  string
	}{
		{"/help", "help", ""},
		{"/help/cards", "help", "cards"},
		{"/help/cards/limits", "help", "cards/limits"},
		{"/accounts/7/docs/2024/statement.pdf", "docs", "2024/statement.pdf"},
		{"/accounts/7", "", ""},
		{"/helpdesk", "", ""},
	}
	for _, tc := range cases {
		route, params, ok := table.Match(tc.path)
		if tc.route == "" {
			if ok {
				t.Fatalf("%s: unexpected match %s", tc.path, route.Name)
			}
			continue
		}
		if !ok || route.Name != tc.route || params["*"] != tc.rest {
			t.Fatalf("%s: got %s %v (ok=%v)", tc.path, route.Name, params, ok)
		}
	}

	if d := table.Resolve("/accounts/7/docs/a", false); d.Outcome != session.OutcomeUnauthenticated {
		t.Fatalf("wildcard route skipped the access check: %s", d.Outcome)
	}
}
