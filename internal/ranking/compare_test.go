package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tidesearch/tidesearch/internal/index"
)

func TestCompareStringsClassOrder(t *testing.T) {
	// Symbols sort before numbers before letters.
	assert.Negative(t, compareStrings("!note", "1note"))
	assert.Negative(t, compareStrings("1note", "anote"))
	assert.Negative(t, compareStrings("!note", "anote"))
}

func TestCompareStringsCaseInsensitive(t *testing.T) {
	assert.Negative(t, compareStrings("Apple", "banana"))
	assert.Negative(t, compareStrings("apple", "Banana"))
	// Shorter prefix sorts first.
	assert.Negative(t, compareStrings("app", "apple"))
}

func TestCompareStringsTotalOrder(t *testing.T) {
	// Case-insensitively equal strings still order deterministically.
	c1 := compareStrings("Apple", "apple")
	c2 := compareStrings("apple", "Apple")
	assert.NotZero(t, c1)
	assert.Equal(t, -c2, c1)
	assert.Zero(t, compareStrings("apple", "apple"))
}

func TestCompareFieldValuesMissingAlwaysLast(t *testing.T) {
	present := index.FieldValue{Kind: index.FieldNumber, Num: 3}
	missing := index.FieldValue{}

	assert.Negative(t, compareFieldValues(present, missing, false))
	assert.Positive(t, compareFieldValues(missing, present, false))
	// Direction does not rescue a missing value.
	assert.Negative(t, compareFieldValues(present, missing, true))
	assert.Zero(t, compareFieldValues(missing, missing, true))
}

func TestCompareFieldValuesNumbersBeforeStrings(t *testing.T) {
	num := index.FieldValue{Kind: index.FieldNumber, Num: 99}
	str := index.FieldValue{Kind: index.FieldString, Str: "1"}
	assert.Negative(t, compareFieldValues(num, str, false))
}

func TestCompareFieldValuesDescending(t *testing.T) {
	low := index.FieldValue{Kind: index.FieldNumber, Num: 1}
	high := index.FieldValue{Kind: index.FieldNumber, Num: 2}
	assert.Negative(t, compareFieldValues(low, high, false))
	assert.Positive(t, compareFieldValues(low, high, true))
}

func TestBuildChainWordsAlwaysFirst(t *testing.T) {
	// Rules without "words" still get the mandatory words pass up front.
	rules, err := ParseRules([]string{"typo"})
	assert.NoError(t, err)
	chain := buildChain(rules, false, false)

	moreWords := &DocScore{DocID: 1, Words: 2, Typos: 2}
	fewerWords := &DocScore{DocID: 2, Words: 1, Typos: 0}
	assert.Negative(t, chain[0](moreWords, fewerWords))
}

func TestBuildChainSkipsSortWithoutQuerySort(t *testing.T) {
	rules, err := ParseRules([]string{"words", "sort", "typo"})
	assert.NoError(t, err)
	withSort := buildChain(rules, true, false)
	withoutSort := buildChain(rules, false, false)
	assert.Len(t, withSort, 3)
	assert.Len(t, withoutSort, 2)
}

func TestParseRulesCustomSort(t *testing.T) {
	rules, err := ParseRules([]string{"words", "release_date:desc"})
	assert.NoError(t, err)
	assert.Equal(t, RuleCustomSort, rules[1].Kind)
	assert.Equal(t, "release_date", rules[1].Field)
	assert.True(t, rules[1].Descending)
	assert.Equal(t, []string{"release_date"}, CustomFields(rules))

	_, err = ParseRules([]string{"bogus"})
	assert.Error(t, err)
}
