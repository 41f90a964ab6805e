package validation

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/meghashyamc/facetsearch/db/searchdb"
	"github.com/meghashyamc/facetsearch/logger"
	"github.com/stretchr/testify/require"
)

func newTestLogger() logger.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func validDocument() searchdb.Document {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return searchdb.Document{
		ID:           1,
		OwnerID:      7,
		Title:        "Payments Gateway",
		Description:  "Card processing",
		URL:          "https://example.com/payments",
		CreatedAt:    now,
		UpdatedAt:    now,
		Industries:   []string{"Fintech"},
		Technologies: []string{"Go", "Rust"},
	}
}

var documentValidationTestCases = []struct {
	name          string
	modify        func(doc *searchdb.Document)
	expectedError string
}{
	{
		name:   "Valid",
		modify: func(doc *searchdb.Document) {},
	},
	{
		name:   "NoLabelsOrURL",
		modify: func(doc *searchdb.Document) { doc.Industries, doc.Technologies, doc.URL = nil, nil, "" },
	},
	{
		name:          "MissingID",
		modify:        func(doc *searchdb.Document) { doc.ID = 0 },
		expectedError: "missing required field 'id'",
	},
	{
		name:          "MissingOwner",
		modify:        func(doc *searchdb.Document) { doc.OwnerID = 0 },
		expectedError: "missing required field 'owner_id'",
	},
	{
		name:          "NegativeOwner",
		modify:        func(doc *searchdb.Document) { doc.OwnerID = -3 },
		expectedError: "value or length of field 'owner_id' is not in the expected range",
	},
	{
		name:          "MissingTitle",
		modify:        func(doc *searchdb.Document) { doc.Title = "" },
		expectedError: "missing required field 'title'",
	},
	{
		name:          "TitleTooLong",
		modify:        func(doc *searchdb.Document) { doc.Title = strings.Repeat("a", 256) },
		expectedError: "value or length of field 'title' is not in the expected range",
	},
	{
		name:          "MissingCreatedAt",
		modify:        func(doc *searchdb.Document) { doc.CreatedAt = time.Time{} },
		expectedError: "missing required field 'created_at'",
	},
	{
		name:          "InvalidURL",
		modify:        func(doc *searchdb.Document) { doc.URL = "not a url" },
		expectedError: "field 'url' is not a valid url",
	},
	{
		name:          "BlankTechnology",
		modify:        func(doc *searchdb.Document) { doc.Technologies = []string{"Go", "  "} },
		expectedError: "invalid label",
	},
	{
		name:          "IndustryWithNullByte",
		modify:        func(doc *searchdb.Document) { doc.Industries = []string{"Fin\x00tech"} },
		expectedError: "invalid label",
	},
}

func TestValidateDocument(t *testing.T) {
	v, err := New(newTestLogger())
	require.NoError(t, err, "could not create validator")

	for _, testCase := range documentValidationTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			doc := validDocument()
			testCase.modify(&doc)

			err := v.Validate(doc)
			if testCase.expectedError == "" {
				assert.NoError(err)
				return
			}
			assert.Error(err)
			assert.Contains(err.Error(), testCase.expectedError)
		})
	}
}

func TestValidateQuery(t *testing.T) {
	assert := require.New(t)
	v, err := New(newTestLogger())
	assert.NoError(err, "could not create validator")

	type request struct {
		Query string `form:"q" validate:"valid_query,max=10"`
	}

	assert.NoError(v.Validate(request{Query: ""}))
	assert.NoError(v.Validate(request{Query: "go"}))
	assert.ErrorContains(v.Validate(request{Query: "   "}), "invalid query in field 'q'")
	assert.ErrorContains(v.Validate(request{Query: strings.Repeat("a", 11)}), "not in the expected range")
}
