package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicResourceName(t *testing.T) {
	cases := []struct {
		project string
		name    string
		want    string
	}{
		{"distro-prod", "distro-ledger-events", "projects/distro-prod/topics/distro-ledger-events"},
		{"distro-prod", " projects/other/topics/ledger ", "projects/other/topics/ledger"},
		{"", "distro-ledger-events", ""},
		{"distro-prod", "  ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, topicResourceName(tc.project, tc.name), tc.name)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("ledger"))
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
}
