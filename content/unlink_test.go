package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnlinkText(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"mention", "hi @foo", "hi @" + zws + "foo"},
		{"hashtag", "#golang rocks", "#" + zws + "golang rocks"},
		{"url dot", "see example.com now", "see example." + zws + "com now"},
		{"trailing dot untouched", "done.", "done."},
		{"dot before space untouched", "a. b", "a. b"},
		{"plain text untouched", "nothing to do here", "nothing to do here"},
		{
			"mixed",
			"@foo check example.com #news",
			"@" + zws + "foo check example." + zws + "com #" + zws + "news",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, UnlinkText(tc.in))
		})
	}
}
