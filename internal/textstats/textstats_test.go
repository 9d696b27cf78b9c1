package textstats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 5, WordCount("five words are in here"))
	assert.Equal(t, 3, WordCount("don't stop believing"))
}

func TestSentenceLengths(t *testing.T) {
	lengths := SentenceLengths("Short one. This sentence has five words! Right?")
	assert.Equal(t, []int{2, 5, 1}, lengths)
	assert.Empty(t, SentenceLengths("   "))
}

func TestTriggerFlags(t *testing.T) {
	assert.True(t, HasQuestion("What do you think?"))
	assert.False(t, HasQuestion("A statement."))

	assert.True(t, HasStory("When I started out, I learned this the hard way."))
	assert.False(t, HasStory("Five tips for better meetings."))

	assert.True(t, HasCallToAction("Agree? Let me know in the comments."))
	assert.False(t, HasCallToAction("Just sharing an observation."))
}

func TestDisclosureCount(t *testing.T) {
	assert.Equal(t, 2, DisclosureCount("Honestly, I failed at this for years."))
	assert.Equal(t, 0, DisclosureCount("Ten productivity hacks."))
}

func TestOpening(t *testing.T) {
	assert.Equal(t, "The first three", Opening("The first three words matter most", 3))
	assert.Equal(t, "short", Opening("short", 8))
}

func TestParagraphsAndList(t *testing.T) {
	text := "Intro paragraph.\n\n- first point\n- second point\n\nClosing."
	assert.Len(t, Paragraphs(text), 3)
	assert.True(t, HasList(text))
	assert.False(t, HasList("no lists here, just prose"))
	assert.True(t, HasList("1. numbered\n2. list"))
}

func TestEmojiAndHashtag(t *testing.T) {
	assert.Equal(t, 2, EmojiCount("great launch 🚀🔥"))
	assert.Equal(t, 0, EmojiCount("plain text"))
	assert.Equal(t, 2, HashtagCount("#leadership thoughts #growth"))
}

func TestTerms(t *testing.T) {
	terms := Terms("The quick brown fox and the lazy dog")
	assert.Equal(t, []string{"quick", "brown", "fox", "lazy", "dog"}, terms)
	assert.Empty(t, Terms("the and of 42"))
}
