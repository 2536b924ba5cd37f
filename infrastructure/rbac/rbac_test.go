package rbac

import "testing"

func TestMatchPathWildcardSegments(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		ok      bool
	}{
		{pattern: "/tasker/api/components/*/milestones/*", path: "/tasker/api/components/1/milestones/3", ok: true},
		{pattern: "/tasker/drawings/*/labels.pdf", path: "/tasker/drawings/10/labels.pdf", ok: true},
		{pattern: "/tasker/exports/drawings/*", path: "/tasker/exports/drawings/1.csv", ok: true},
		{pattern: "/tasker/admin/users", path: "/tasker/admin/users", ok: true},
		{pattern: "/tasker/admin/users", path: "/tasker/admin/users/1", ok: false},
		{pattern: "/tasker/api/components/*/milestones/*", path: "/tasker/api/components/1/uncomplete", ok: false},
	}

	for _, tc := range cases {
		if got := matchPath(tc.pattern, tc.path); got != tc.ok {
			t.Fatalf("pattern=%s path=%s expected=%v got=%v", tc.pattern, tc.path, tc.ok, got)
		}
	}
}
