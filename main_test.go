package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitProject(t *testing.T) {
	ns, name := splitProject("group/app")
	assert.Equal(t, "group", ns)
	assert.Equal(t, "app", name)

	ns, name = splitProject("group/sub/app")
	assert.Equal(t, "group_sub", ns)
	assert.Equal(t, "app", name)

	ns, name = splitProject("solo")
	assert.Equal(t, "solo", ns)
	assert.Equal(t, "solo", name)
}

func TestReviewTarget(t *testing.T) {
	assert.Equal(t, "acme/widgets#7", reviewTarget(&options{
		platform: "github", owner: "acme", repo: "widgets", prNumber: 7,
	}))
	assert.Equal(t, "group/app!12", reviewTarget(&options{
		platform: "gitlab", project: "group/app", mrIID: 12,
	}))
}
