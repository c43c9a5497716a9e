package user

import "testing"

func TestPrincipal_CanManage(t *testing.T) {
	gym := "org-crossbox"
	other := "org-other"

	cases := []struct {
		name      string
		principal Principal
		org       *string
		want      bool
	}{
		{name: "admin on league-run", principal: Principal{UserID: "a", IsAdmin: true}, org: nil, want: true},
		{name: "admin on gym event", principal: Principal{UserID: "a", IsAdmin: true}, org: &gym, want: true},
		{name: "staff of owner", principal: Principal{UserID: "s", OrganizationIDs: []string{gym}}, org: &gym, want: true},
		{name: "staff of another gym", principal: Principal{UserID: "s", OrganizationIDs: []string{other}}, org: &gym, want: false},
		{name: "staff on league-run", principal: Principal{UserID: "s", OrganizationIDs: []string{gym}}, org: nil, want: false},
		{name: "athlete", principal: Principal{UserID: "x"}, org: &gym, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.principal.CanManage(tc.org); got != tc.want {
				t.Fatalf("CanManage=%v, want %v", got, tc.want)
			}
		})
	}
}
