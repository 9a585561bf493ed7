package ingest

import "testing"

func TestSplitPairName(t *testing.T) {
	cases := []struct {
		name    string
		wantID  string
		wantExt string
	}{
		{"/inbox/abc123.json", "abc123", ".json"},
		{"/inbox/abc123.chunks", "abc123", ".chunks"},
		{"/inbox/abc123.txt", "", ""},
		{"readme.md", "", ""},
	}
	for _, c := range cases {
		id, ext := splitPairName(c.name)
		if id != c.wantID || ext != c.wantExt {
			t.Errorf("splitPairName(%q) = (%q, %q), want (%q, %q)", c.name, id, ext, c.wantID, c.wantExt)
		}
	}
}
