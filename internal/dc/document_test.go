package dc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recordWithoutHandle = `<oai_dc:dc xmlns:oai_dc="http://www.openarchives.org/OAI/2.0/oai_dc/" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:title>Test Object</dc:title>
  <dc:identifier>obj:1</dc:identifier>
</oai_dc:dc>`

const recordWithStaleHandle = `<oai_dc:dc xmlns:oai_dc="http://www.openarchives.org/OAI/2.0/oai_dc/" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:title>Test Object</dc:title>
  <dc:identifier>http://hdl.handle.net/1234/old:pid</dc:identifier>
  <dc:creator>Someone</dc:creator>
</oai_dc:dc>`

const recordWithCurrentHandle = `<oai_dc:dc xmlns:oai_dc="http://www.openarchives.org/OAI/2.0/oai_dc/" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:title>Test Object</dc:title>
  <dc:identifier>http://hdl.handle.net/1234/obj:1</dc:identifier>
</oai_dc:dc>`

const handleURL = "http://hdl.handle.net/1234/obj:1"

func TestParse(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		expectedError bool
	}{
		{
			name:          "valid record",
			content:       recordWithoutHandle,
			expectedError: false,
		},
		{
			name:          "not XML",
			content:       "not xml at all",
			expectedError: true,
		},
		{
			name:          "wrong root element",
			content:       `<mods xmlns="http://www.loc.gov/mods/v3"/>`,
			expectedError: true,
		},
		{
			name:          "dc root outside the OAI namespace",
			content:       `<dc xmlns="http://example.com/not-oai"/>`,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetHandleIdentifier_Append(t *testing.T) {
	doc, err := Parse([]byte(recordWithoutHandle))
	require.NoError(t, err)

	changed := doc.SetHandleIdentifier(handleURL)
	assert.True(t, changed)

	got, ok := doc.HandleIdentifier()
	require.True(t, ok)
	assert.Equal(t, handleURL, got)

	// The non-handle identifier must survive untouched.
	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), "<dc:identifier>obj:1</dc:identifier>")
}

func TestSetHandleIdentifier_ReplaceStale(t *testing.T) {
	doc, err := Parse([]byte(recordWithStaleHandle))
	require.NoError(t, err)

	changed := doc.SetHandleIdentifier(handleURL)
	assert.True(t, changed)

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "old:pid")
	assert.Contains(t, string(out), handleURL)

	// Replacement happens in place: the identifier stays between title
	// and creator.
	s := string(out)
	title := indexOf(t, s, "</dc:title>")
	ident := indexOf(t, s, handleURL)
	creator := indexOf(t, s, "<dc:creator>")
	assert.Less(t, title, ident)
	assert.Less(t, ident, creator)
}

func TestSetHandleIdentifier_AlreadyCurrent(t *testing.T) {
	doc, err := Parse([]byte(recordWithCurrentHandle))
	require.NoError(t, err)

	changed := doc.SetHandleIdentifier(handleURL)
	assert.False(t, changed)
}

func TestSetHandleIdentifier_Idempotent(t *testing.T) {
	doc, err := Parse([]byte(recordWithoutHandle))
	require.NoError(t, err)
	require.True(t, doc.SetHandleIdentifier(handleURL))
	first, err := doc.Bytes()
	require.NoError(t, err)

	again, err := Parse(first)
	require.NoError(t, err)
	assert.False(t, again.SetHandleIdentifier(handleURL))
	second, err := again.Bytes()
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, 1, strings.Count(string(second), HandlePrefix))
}

func TestSetHandleIdentifier_ConvergesDuplicates(t *testing.T) {
	const duplicated = `<oai_dc:dc xmlns:oai_dc="http://www.openarchives.org/OAI/2.0/oai_dc/" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:identifier>http://hdl.handle.net/1234/stale-a</dc:identifier>
  <dc:identifier>http://hdl.handle.net/1234/stale-b</dc:identifier>
</oai_dc:dc>`

	doc, err := Parse([]byte(duplicated))
	require.NoError(t, err)

	// Only the first duplicate is fixed per call.
	require.True(t, doc.SetHandleIdentifier(handleURL))
	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "stale-a")
	assert.Contains(t, string(out), "stale-b")
}

func TestRemoveIdentifier(t *testing.T) {
	tests := []struct {
		name            string
		content         string
		url             string
		expectedRemoved bool
	}{
		{
			name:            "exact match removed",
			content:         recordWithCurrentHandle,
			url:             handleURL,
			expectedRemoved: true,
		},
		{
			name:            "different handle untouched",
			content:         recordWithStaleHandle,
			url:             handleURL,
			expectedRemoved: false,
		},
		{
			name:            "no handle at all",
			content:         recordWithoutHandle,
			url:             handleURL,
			expectedRemoved: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.expectedRemoved, doc.RemoveIdentifier(tt.url))
			if tt.expectedRemoved {
				_, ok := doc.HandleIdentifier()
				assert.False(t, ok)
			}
		})
	}
}

// Retraction restores the record to its pre-handle shape: add then remove
// round-trips to the original serialized form.
func TestAddRemoveRoundTrip(t *testing.T) {
	original, err := Parse([]byte(recordWithoutHandle))
	require.NoError(t, err)
	baseline, err := original.Bytes()
	require.NoError(t, err)

	doc, err := Parse(baseline)
	require.NoError(t, err)
	require.True(t, doc.SetHandleIdentifier(handleURL))
	withHandle, err := doc.Bytes()
	require.NoError(t, err)

	doc, err = Parse(withHandle)
	require.NoError(t, err)
	require.True(t, doc.RemoveIdentifier(handleURL))
	restored, err := doc.Bytes()
	require.NoError(t, err)

	assert.Equal(t, string(baseline), string(restored))
}

func indexOf(t *testing.T, s, sub string) int {
	t.Helper()
	idx := strings.Index(s, sub)
	require.GreaterOrEqual(t, idx, 0, "substring %q not found", sub)
	return idx
}
