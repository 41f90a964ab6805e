package searchdb

import (
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

const minTermLengthForPrefix = 3

const (
	boostForTitle        = 2.0
	boostForDescription  = 1.0
	boostForTitlePhrase  = 5.0
	boostForTitlePrefix  = 3.0
	boostForPartialMatch = 1.5
)

const (
	sortByScore = "-_score"
)

var sortFieldsToIndexFields = map[SortField]string{
	SortID:        indexFieldProjectID,
	SortTitle:     indexFieldTitleKey,
	SortCreatedAt: indexFieldCreatedAt,
	SortUpdatedAt: indexFieldUpdatedAt,
}

// buildQuery intersects the owner filter, the optional text query and one
// exact-match constraint per selected label.
func buildQuery(request Request) query.Query {

	ownerQuery := bleve.NewTermQuery(strconv.FormatInt(request.OwnerID, 10))
	ownerQuery.SetField(indexFieldOwner)

	conjunctQuery := bleve.NewConjunctionQuery(ownerQuery)

	if text := strings.TrimSpace(request.Text); text != "" {
		conjunctQuery.AddQuery(buildTextQuery(text, request.Fuzziness))
	}

	for _, label := range request.Technologies {
		conjunctQuery.AddQuery(labelQuery(indexFieldTechnologyKeys, label))
	}
	for _, label := range request.Industries {
		conjunctQuery.AddQuery(labelQuery(indexFieldIndustryKeys, label))
	}

	return conjunctQuery
}

func labelQuery(field string, label string) query.Query {
	termQuery := bleve.NewTermQuery(NormalizeLabel(label))
	termQuery.SetField(field)
	return termQuery
}

func buildTextQuery(text string, fuzziness int) query.Query {

	disjunctQuery := bleve.NewDisjunctionQuery()

	titleQuery := bleve.NewMatchQuery(text)
	titleQuery.SetField(indexFieldTitle)
	titleQuery.SetFuzziness(fuzziness)
	titleQuery.SetBoost(boostForTitle)
	disjunctQuery.AddQuery(titleQuery)

	descriptionQuery := bleve.NewMatchQuery(text)
	descriptionQuery.SetField(indexFieldDescription)
	descriptionQuery.SetFuzziness(fuzziness)
	descriptionQuery.SetBoost(boostForDescription)
	disjunctQuery.AddQuery(descriptionQuery)

	phraseQuery := bleve.NewMatchPhraseQuery(text)
	phraseQuery.SetField(indexFieldTitle)
	phraseQuery.SetBoost(boostForTitlePhrase)
	disjunctQuery.AddQuery(phraseQuery)

	lowered := strings.ToLower(text)

	// Titles that start with what has been typed so far
	titlePrefixQuery := bleve.NewPrefixQuery(lowered)
	titlePrefixQuery.SetField(indexFieldTitleKey)
	titlePrefixQuery.SetBoost(boostForTitlePrefix)
	disjunctQuery.AddQuery(titlePrefixQuery)

	terms := strings.Fields(lowered)
	if lastTerm := terms[len(terms)-1]; len(lastTerm) >= minTermLengthForPrefix {
		termPrefixQuery := bleve.NewPrefixQuery(lastTerm)
		termPrefixQuery.SetField(indexFieldTitle)
		termPrefixQuery.SetBoost(boostForPartialMatch)
		disjunctQuery.AddQuery(termPrefixQuery)
	}

	return disjunctQuery
}

// sortOrder always ends with the project id so equal keys keep a stable order.
func sortOrder(request Request) []string {
	switch {
	case request.SortBy == SortID:
		return []string{indexFieldProjectID}
	case request.SortBy != SortNone:
		return []string{sortFieldsToIndexFields[request.SortBy], indexFieldProjectID}
	case strings.TrimSpace(request.Text) != "":
		return []string{sortByScore, indexFieldProjectID}
	default:
		return []string{indexFieldProjectID}
	}
}
