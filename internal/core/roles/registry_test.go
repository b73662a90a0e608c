package roles

import "testing"

func TestResolve(t *testing.T) {
	r := NewRegistry()
	r.Register(Role{Code: 2, Name: "Developer", TaskPhases: []int{2, 4}})

	role, err := r.Resolve(2)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if role.Name != "Developer" {
		t.Errorf("role name = %q, want Developer", role.Name)
	}
}

func TestResolveUnknownCode(t *testing.T) {
	r := NewRegistry()
	r.Register(Role{Code: 2, Name: "Developer"})

	if _, err := r.Resolve(9); err == nil {
		t.Fatal("expected error for unknown role code")
	}
}

func TestActsIn(t *testing.T) {
	role := Role{Code: 3, Name: "Owner", TaskPhases: []int{2, 3, 5, 6}}

	cases := []struct {
		phase int
		want  bool
	}{
		{2, true},
		{3, true},
		{4, false},
		{6, true},
		{7, false},
	}
	for _, c := range cases {
		if got := role.ActsIn(c.phase); got != c.want {
			t.Errorf("ActsIn(%d) = %v, want %v", c.phase, got, c.want)
		}
	}
}
