package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func validDraft() Draft {
	return Draft{
		FullName:      "Jane Doe",
		PhoneNumber:   "+1 555-123-4567",
		Location:      "Lagos, Nigeria",
		Email:         "jane@example.com",
		Hobbies:       strings.Repeat("reading and hiking ", 3),
		ProfileImage:  &FileMeta{Name: "me.png", Size: 1024},
		SourceArchive: &FileMeta{Name: "code.zip", Size: 2048},
	}
}

func TestValidateDraftAcceptsValidDraft(t *testing.T) {
	require.Empty(t, ValidateDraft(validDraft()))
}

func TestValidateDraftPhoneDigitCount(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		valid bool
	}{
		{"formatted ten digits", "+1 555-123-4567", true},
		{"three digits", "123", false},
		{"seven digits exact", "1234567", true},
		{"six digits", "123456", false},
		{"fifteen digits exact", "123456789012345", true},
		{"sixteen digits", "1234567890123456", false},
		{"letters around digits", "call 5551234567 now", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			draft := validDraft()
			draft.PhoneNumber = tc.phone
			problems := ValidateDraft(draft)
			if tc.valid {
				require.NotContains(t, problems, "phone_number")
			} else {
				require.Contains(t, problems, "phone_number")
			}
		})
	}
}

func TestValidateDraftHobbiesBoundaries(t *testing.T) {
	tests := []struct {
		length int
		valid  bool
	}{
		{19, false},
		{20, true},
		{1000, true},
		{1001, false},
	}

	for _, tc := range tests {
		draft := validDraft()
		draft.Hobbies = strings.Repeat("a", tc.length)
		problems := ValidateDraft(draft)
		if tc.valid {
			require.NotContains(t, problems, "hobbies", "length %d", tc.length)
		} else {
			require.Contains(t, problems, "hobbies", "length %d", tc.length)
		}
	}
}

func TestValidateDraftNameAndLocationBoundaries(t *testing.T) {
	draft := validDraft()
	draft.FullName = "J"
	require.Contains(t, ValidateDraft(draft), "full_name")

	draft = validDraft()
	draft.FullName = strings.Repeat("a", 101)
	require.Contains(t, ValidateDraft(draft), "full_name")

	draft = validDraft()
	draft.Location = strings.Repeat("b", 100)
	require.NotContains(t, ValidateDraft(draft), "location")
}

func TestValidateDraftTrimsBeforeMeasuring(t *testing.T) {
	draft := validDraft()
	draft.FullName = "  J  "
	require.Contains(t, ValidateDraft(draft), "full_name")

	draft = validDraft()
	draft.Hobbies = "   " + strings.Repeat("a", 20) + "   "
	require.NotContains(t, ValidateDraft(draft), "hobbies")
}

func TestValidateDraftEmailShape(t *testing.T) {
	invalid := []string{"", "plain", "a@b", "a b@c.com", "@example.com", "user@"}
	for _, email := range invalid {
		draft := validDraft()
		draft.Email = email
		require.Contains(t, ValidateDraft(draft), "email", "email %q", email)
	}

	draft := validDraft()
	draft.Email = "first.last@sub.example.co"
	require.NotContains(t, ValidateDraft(draft), "email")
}

func TestValidateDraftRequiredFields(t *testing.T) {
	problems := ValidateDraft(Draft{})
	for _, field := range []string{"full_name", "phone_number", "location", "email", "hobbies", "profile_image", "source_archive"} {
		require.Contains(t, problems, field)
	}
}

func TestValidateDraftArchiveRules(t *testing.T) {
	draft := validDraft()
	draft.SourceArchive = &FileMeta{Name: "code.tar.gz", Size: 2048}
	require.Contains(t, ValidateDraft(draft), "source_archive")

	draft = validDraft()
	draft.SourceArchive = &FileMeta{Name: "code.zip", Size: MaxArchiveBytes + 1}
	require.Contains(t, ValidateDraft(draft), "source_archive")

	draft = validDraft()
	draft.SourceArchive = &FileMeta{Name: "CODE.ZIP", Size: MaxArchiveBytes}
	require.NotContains(t, ValidateDraft(draft), "source_archive")
}

func TestValidateDraftIsDeterministic(t *testing.T) {
	draft := validDraft()
	draft.Email = "broken"
	first := ValidateDraft(draft)
	second := ValidateDraft(draft)
	require.Equal(t, first, second)
}
