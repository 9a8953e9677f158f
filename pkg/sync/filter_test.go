package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gifttotost1449/huggingface-sync/pkg/hub"
)

func TestIncluded(t *testing.T) {
	demo := hub.Space{Owner: "alice", Name: "demo"}

	tests := []struct {
		name    string
		space   hub.Space
		include []string
		exclude []string
		exp     bool
	}{
		{
			name:  "NoFilters",
			space: demo,
			exp:   true,
		},
		{
			name:    "IncludeByName",
			space:   demo,
			include: []string{"demo"},
			exp:     true,
		},
		{
			name:    "IncludeByFullID",
			space:   demo,
			include: []string{"alice/demo"},
			exp:     true,
		},
		{
			name:    "NotInIncludeList",
			space:   demo,
			include: []string{"other"},
			exp:     false,
		},
		{
			name:    "ExcludeByName",
			space:   demo,
			exclude: []string{"demo"},
			exp:     false,
		},
		{
			name:    "ExcludeByFullID",
			space:   demo,
			exclude: []string{"alice/demo"},
			exp:     false,
		},
		{
			name:    "ExcludeWinsOverInclude",
			space:   demo,
			include: []string{"demo"},
			exclude: []string{"demo"},
			exp:     false,
		},
		{
			name:    "ExcludeOtherSpace",
			space:   demo,
			exclude: []string{"other"},
			exp:     true,
		},
		{
			name:    "FullIDPatternDoesNotMatchOtherOwner",
			space:   hub.Space{Owner: "bob", Name: "demo"},
			include: []string{"alice/demo"},
			exp:     false,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp,
				Included(test.space, test.include, test.exclude))
		})
	}
}
