package reso

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexbeattie/cautious-fishstick-only/internal/listing"
)

func TestDecodeBatchKeepsSourceOrder(t *testing.T) {
	raw := []byte(`{"value":[
		{"ListingKey":"1","MlsStatus":"Active","ListPrice":650000},
		{"ListingKey":"2","MlsStatus":"Pending","ListPrice":"499,000"}
	]}`)
	ls, err := DecodeBatch(raw)
	require.NoError(t, err)
	require.Len(t, ls, 2)
	assert.Equal(t, "1", ls[0].Key)
	assert.Equal(t, "2", ls[1].Key)
	require.NotNil(t, ls[1].Price)
	assert.Equal(t, 499000.0, *ls[1].Price)
	assert.Equal(t, listing.StyleWarning, ls[1].Status.Style())
}

func TestDecodeBatchPartialFieldTolerance(t *testing.T) {
	raw := []byte(`{"value":[
		{"ListingKey":"1","ListPrice":{"oops":true},"BedroomsTotal":"three","BathroomsTotalInteger":2,
		 "Media":"not-a-list","CommunityFeatures":"Pool, Park ,","Latitude":"bad","Longitude":-97.7}
	]}`)
	ls, err := DecodeBatch(raw)
	require.NoError(t, err)
	require.Len(t, ls, 1)
	l := ls[0]
	assert.Nil(t, l.Price)
	assert.Nil(t, l.Bedrooms)
	require.NotNil(t, l.Bathrooms)
	assert.Equal(t, 2, *l.Bathrooms)
	assert.Nil(t, l.Media)
	assert.Equal(t, []string{"Pool", "Park"}, l.CommunityFeatures)
	assert.Nil(t, l.Coordinate)
	assert.False(t, l.Mappable())
}

func TestDecodeBatchDropsUnidentifiedAndDuplicateRecords(t *testing.T) {
	raw := []byte(`{"value":[
		{"MlsStatus":"Active"},
		{"ListingKey":"   "},
		"garbage",
		{"ListingKey":7,"Model":"first"},
		{"ListingKey":"7","Model":"second"},
		{"ListingKey":"8"}
	]}`)
	ls, err := DecodeBatch(raw)
	require.NoError(t, err)
	require.Len(t, ls, 2)
	assert.Equal(t, "7", ls[0].Key)
	assert.Equal(t, "first", ls[0].Model)
	assert.Equal(t, "8", ls[1].Key)
}

func TestDecodeBatchZeroCoordinateIsMappable(t *testing.T) {
	raw := []byte(`{"value":[
		{"ListingKey":"zero","Latitude":0,"Longitude":0},
		{"ListingKey":"none","Latitude":null},
		{"ListingKey":"out","Latitude":123,"Longitude":10}
	]}`)
	ls, err := DecodeBatch(raw)
	require.NoError(t, err)
	require.Len(t, ls, 3)
	require.NotNil(t, ls[0].Coordinate)
	assert.Equal(t, orb.Point{0, 0}, *ls[0].Coordinate)
	assert.Nil(t, ls[1].Coordinate)
	assert.Nil(t, ls[2].Coordinate)
}

func TestDecodeBatchMedia(t *testing.T) {
	raw := []byte(`{"value":[{"ListingKey":"1","Media":[
		{"MediaKey":"a","MediaURL":"https://cdn.example.com/a.jpg","MediaCategory":"Photo"},
		{"MediaKey":"b","MediaURL":null},
		{"MediaKey":"c","MediaURL":"ftp://nope/c.jpg"},
		42
	]}]}`)
	ls, err := DecodeBatch(raw)
	require.NoError(t, err)
	require.Len(t, ls[0].Media, 3)
	assert.Equal(t, "https://cdn.example.com/a.jpg", ls[0].Media[0].URL)
	assert.Equal(t, listing.CategoryPhoto, ls[0].Media[0].Category)
	assert.Equal(t, "", ls[0].Media[1].URL)
	assert.Equal(t, "", ls[0].Media[2].URL)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, ls[0].PhotoURLs())
}

func TestDecodeBatchMalformed(t *testing.T) {
	for _, raw := range []string{`not json`, `{"value":{}}`, `{"other":[]}`} {
		_, err := DecodeBatch([]byte(raw))
		assert.ErrorIs(t, err, listing.ErrDecode, raw)
	}
}
