package sheets

import "testing"

func TestColumnLetter(t *testing.T) {
	cases := []struct {
		col  int64
		want string
	}{
		{1, "A"},
		{2, "B"},
		{26, "Z"},
		{27, "AA"},
		{52, "AZ"},
		{53, "BA"},
		{702, "ZZ"},
		{703, "AAA"},
	}
	for _, tc := range cases {
		if got := columnLetter(tc.col); got != tc.want {
			t.Fatalf("columnLetter(%d) = %q, want %q", tc.col, got, tc.want)
		}
	}
}
