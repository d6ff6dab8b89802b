package provider

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opdsapi/internal/platform/archiveorg"
)

func intp(i int) *int    { return &i }
func boolp(b bool) *bool { return &b }

func TestComputeAvailability(t *testing.T) {
	tests := []struct {
		name    string
		lending Lending
		want    Status
	}{
		{"no lending fields", Lending{}, StatusUnknown},
		{"explicitly not restricted", Lending{AccessRestricted: boolp(false), MaxLendableCopies: intp(0)}, StatusOpen},
		{"slots remaining", Lending{AccessRestricted: boolp(true), MaxLendableCopies: intp(5), ActiveBorrows: intp(2)}, StatusAvailable},
		{"upstream says borrowable", Lending{AvailableToBorrow: boolp(true)}, StatusAvailable},
		{"upstream says browsable", Lending{AvailableToBrowse: boolp(true), AvailableToBorrow: boolp(false)}, StatusAvailable},
		{"exhausted, waitlist eligible", Lending{MaxLendableCopies: intp(2), ActiveBorrows: intp(2), IsLendable: boolp(true)}, StatusWaitlisted},
		{"exhausted, not lendable", Lending{MaxLendableCopies: intp(2), ActiveBorrows: intp(1), ActiveBrowses: intp(1), IsLendable: boolp(false)}, StatusUnavailable},
		{"flags false only", Lending{AvailableToBorrow: boolp(false)}, StatusUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeAvailability(tt.lending).Status)
		})
	}
}

func TestParseLending_Precedence(t *testing.T) {
	waitlisted := ComputeAvailability(ParseLending(map[string]any{
		"lending___max_lendable_copies": "3",
		"lending___active_borrows":      "3",
		"lending___is_lendable":         "true",
	}))
	assert.Equal(t, StatusWaitlisted, waitlisted.Status)
	require.NotNil(t, waitlisted.LoansRemaining)
	assert.Equal(t, 0, *waitlisted.LoansRemaining)

	available := ComputeAvailability(ParseLending(map[string]any{
		"lending___max_lendable_copies": float64(3),
		"lending___active_borrows":      float64(0),
		"lending___is_lendable":         true,
	}))
	assert.Equal(t, StatusAvailable, available.Status)
	require.NotNil(t, available.LoansRemaining)
	assert.Equal(t, 3, *available.LoansRemaining)

	assert.Equal(t, StatusUnknown, ComputeAvailability(ParseLending(map[string]any{"title": "x"})).Status)
}

func TestParseLending_IgnoresUnparseable(t *testing.T) {
	l := ParseLending(map[string]any{
		"lending___max_lendable_copies": "many",
		"lending___available_to_borrow": "perhaps",
	})
	assert.Nil(t, l.MaxLendableCopies)
	assert.Nil(t, l.AvailableToBorrow)
	assert.Equal(t, StatusUnknown, ComputeAvailability(l).Status)
}

func TestComputeAvailability_UntilEarliestExpiration(t *testing.T) {
	borrowExp := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	browseExp := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	a := ComputeAvailability(Lending{
		AccessRestricted:  boolp(true),
		IsLendable:        boolp(false),
		MaxLendableCopies: intp(3),
		UsersOnWaitlist:   intp(0),
		ActiveBorrows:     intp(1),
		ActiveBrowses:     intp(2),
		BorrowExpiration:  &borrowExp,
		BrowseExpiration:  &browseExp,
	})
	assert.Equal(t, StatusUnavailable, a.Status)
	require.NotNil(t, a.Until)
	assert.True(t, a.Until.Equal(browseExp))
}

func TestComputeAvailability_NoUntilWithLongWaitlist(t *testing.T) {
	exp := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a := ComputeAvailability(Lending{
		IsLendable:        boolp(true),
		MaxLendableCopies: intp(1),
		UsersOnWaitlist:   intp(4),
		ActiveBorrows:     intp(1),
		ActiveBrowses:     intp(0),
		BorrowExpiration:  &exp,
	})
	assert.Equal(t, StatusWaitlisted, a.Status)
	assert.Nil(t, a.Until)
}

func TestNewRecord_Normalizes(t *testing.T) {
	rec := NewRecord("moby", &archiveorg.Item{
		Metadata: map[string]any{
			"mediatype":              "audio",
			"title":                  "Moby Dick",
			"publicdate":             "2010-01-01 00:00:00",
			"imagecount":             "312",
			"runtime":                "1:48:13",
			"creator":                []any{"Melville, Herman", "Reader, A"},
			"description":            []any{"line one\nline two", "para"},
			"language":               []any{"eng", "French"},
			"external-identifier":    "urn:lcp:moby:epub:1234",
			"access-restricted-item": "true",
		},
		Files: []archiveorg.File{
			{Name: "a.mp3", Format: "64Kbps MP3"},
			{Name: "b.mp3", Format: "64Kbps MP3"},
			{Name: "moby.epub", Format: "Remediated EPUB"},
		},
	})

	assert.Equal(t, MediaAudio, rec.MediaType)
	assert.Equal(t, "Moby Dick", rec.Title)
	assert.Equal(t, 312, rec.NumberOfPages)
	assert.Equal(t, float64(6493), rec.Duration)
	assert.Equal(t, StringList{"Melville, Herman", "Reader, A"}, rec.Author)
	assert.Equal(t, "line one<br />line two<br><br>para", rec.Description)
	assert.Equal(t, StringList{"English", "French"}, rec.Language)
	assert.Equal(t, []string{"64Kbps MP3", "Remediated EPUB"}, rec.Formats)
	assert.Equal(t, []string{"urn:lcp:moby:epub:1234"}, []string(rec.ExternalIdentifiers))
	assert.True(t, rec.AccessRestricted)
	assert.Equal(t, StatusUnknown, rec.Availability.Status)
	assert.Len(t, rec.Files, 3)
}

func TestNewRecord_Defaults(t *testing.T) {
	rec := NewRecord("plain", &archiveorg.Item{Metadata: map[string]any{"mediatype": "movies", "description": "as is\n"}})

	assert.Equal(t, MediaTexts, rec.MediaType)
	assert.Equal(t, "plain", rec.Title)
	assert.Equal(t, "as is\n", rec.Description)
	assert.Nil(t, rec.Author)
	assert.False(t, rec.AccessRestricted)
}

func TestParseRuntime(t *testing.T) {
	assert.Equal(t, float64(6493), ParseRuntime("1:48:13"))
	assert.Equal(t, float64(125), ParseRuntime("2:05"))
	assert.Equal(t, float64(42), ParseRuntime("42"))
	assert.Equal(t, float64(0), ParseRuntime("soon"))
}

func TestStringList_JSON(t *testing.T) {
	one, err := json.Marshal(StringList{"English"})
	require.NoError(t, err)
	assert.JSONEq(t, `"English"`, string(one))

	many, err := json.Marshal(StringList{"English", "French"})
	require.NoError(t, err)
	assert.JSONEq(t, `["English","French"]`, string(many))

	var l StringList
	require.NoError(t, json.Unmarshal([]byte(`"Melville"`), &l))
	assert.Equal(t, StringList{"Melville"}, l)
	require.NoError(t, json.Unmarshal([]byte(`["a","b"]`), &l))
	assert.Equal(t, StringList{"a", "b"}, l)
}
