package browser

import (
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
)

func TestBlockedResourceClasses(t *testing.T) {
	blocked := []network.ResourceType{
		network.ResourceTypeImage,
		network.ResourceTypeStylesheet,
		network.ResourceTypeFont,
		network.ResourceTypeMedia,
		network.ResourceTypeScript,
		network.ResourceTypeXHR,
		network.ResourceTypeFetch,
	}
	for _, rt := range blocked {
		assert.True(t, blockedResourceTypes[rt], "%s must be aborted", rt)
	}

	// The primary document request always goes through.
	assert.False(t, blockedResourceTypes[network.ResourceTypeDocument])
	assert.False(t, blockedResourceTypes[network.ResourceTypeOther])
}

func TestNewFetcherDefaults(t *testing.T) {
	f := NewFetcher(FetcherConfig{})

	assert.True(t, strings.HasPrefix(f.cfg.UserAgent, "Mozilla/5.0"), "client identity must resemble a desktop browser")
	assert.Equal(t, defaultNavTimeout, f.cfg.NavTimeout)
	assert.Equal(t, defaultEvalTimeout, f.cfg.EvalTimeout)
}

func TestNewFetcherKeepsExplicitConfig(t *testing.T) {
	f := NewFetcher(FetcherConfig{
		UserAgent:  "custom-agent",
		NavTimeout: 2 * time.Second,
	})

	assert.Equal(t, "custom-agent", f.cfg.UserAgent)
	assert.Equal(t, 2*time.Second, f.cfg.NavTimeout)
	assert.Equal(t, defaultEvalTimeout, f.cfg.EvalTimeout)
}
