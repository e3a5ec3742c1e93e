package sanitize

import "testing"

func TestHTMLSanitizerStripsMarkup(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "  needs a new logo ", "needs a new logo"},
		{"tags removed", "<p>Logo is <b>too small</b></p>", "Logo is too small"},
		{"scripts dropped", `ok<script>alert("x")</script>`, "ok"},
		{"line breaks kept", "first<br>second<br/>third", "first\nsecond\nthird"},
		{"entities decoded", "Tom &amp; Jerry", "Tom & Jerry"},
		{"paragraphs split", "<p>one</p><p>two</p>", "one\ntwo"},
	}
	for _, tc := range cases {
		got, err := HTMLSanitizer{}.Sanitize(tc.in)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
