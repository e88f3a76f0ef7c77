package topicdict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Alias(t *testing.T) {
	canon, ok := Resolve("Technology")
	require.True(t, ok)
	assert.Equal(t, "tech", canon)

	canon, ok = Resolve("Artificial Intelligence")
	require.True(t, ok)
	assert.Equal(t, "ai", canon)

	canon, ok = Resolve("genAI")
	require.True(t, ok)
	assert.Equal(t, "ai", canon)
}

func TestResolve_UnknownTopic(t *testing.T) {
	_, ok := Resolve("underwater basket weaving")
	assert.False(t, ok)
}

func TestIsGeneral(t *testing.T) {
	assert.True(t, IsGeneral("General"))
	assert.True(t, IsGeneral(" general "))
	assert.False(t, IsGeneral("ai"))
}

func TestExpandKeywords_KnownTopicsNonEmpty(t *testing.T) {
	for topic := range Keywords {
		kws := ExpandKeywords(topic)
		assert.NotEmpty(t, kws, "topic %q should have keywords", topic)
		assert.GreaterOrEqual(t, len(kws), 10, "topic %q should have at least 10 keywords", topic)
	}
}

func TestIsIndianPublisher(t *testing.T) {
	assert.True(t, IsIndianPublisher("www.ndtv.com"))
	assert.True(t, IsIndianPublisher("timesofindia.indiatimes.com"))
	assert.True(t, IsIndianPublisher("devshorts.in"))
	assert.False(t, IsIndianPublisher("techcrunch.com"))
}

func TestExclude_ContainsCarriedOverTokens(t *testing.T) {
	assert.Contains(t, Exclude, "ukraine")
	assert.Contains(t, Exclude, "russia")
	assert.Contains(t, Exclude, "paint")
	assert.Contains(t, Exclude, "painter")
	assert.Contains(t, Exclude, "painting")
}
