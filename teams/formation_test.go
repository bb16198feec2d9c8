package teams

import "testing"

func TestTemplateForKnownSizes(t *testing.T) {
	cases := []struct {
		size int
		want Formation
	}{
		{4, Formation{Defenders: 1, Midfielders: 2, Attackers: 1}},
		{5, Formation{Defenders: 2, Midfielders: 2, Attackers: 1}},
		{6, Formation{Defenders: 2, Midfielders: 3, Attackers: 1}},
		{7, Formation{Defenders: 2, Midfielders: 3, Attackers: 2}},
		{8, Formation{Defenders: 3, Midfielders: 3, Attackers: 2}},
		{9, Formation{Defenders: 3, Midfielders: 4, Attackers: 2}},
		{10, Formation{Defenders: 4, Midfielders: 4, Attackers: 2}},
		{11, Formation{Defenders: 4, Midfielders: 4, Attackers: 3}},
	}

	for _, tc := range cases {
		got, err := TemplateFor(tc.size)
		if err != nil {
			t.Fatalf("TemplateFor(%d): unexpected error: %v", tc.size, err)
		}
		if got != tc.want {
			t.Errorf("TemplateFor(%d) = %+v, want %+v", tc.size, got, tc.want)
		}
		if got.Total() != tc.size {
			t.Errorf("TemplateFor(%d).Total() = %d, want %d", tc.size, got.Total(), tc.size)
		}
	}
}

func TestTemplateForUnknownSize(t *testing.T) {
	for _, size := range []int{0, 3, 12} {
		if _, err := TemplateFor(size); err == nil {
			t.Errorf("TemplateFor(%d): expected error, got nil", size)
		}
	}
}
