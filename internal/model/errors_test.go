package model

import (
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestFetchError_Message(t *testing.T) {
	err := &FetchError{URL: "/data/gdp.csv", Status: 404}
	assert.Equal(t, "fetch /data/gdp.csv: status 404", err.Error())

	inner := errors.New("connection refused")
	err = &FetchError{URL: "/x", Err: inner}
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, inner)

	err = &FetchError{URL: "ftp://host/missing.csv", Status: 404, Err: errors.New("550 not found")}
	assert.Equal(t, "fetch ftp://host/missing.csv: status 404: 550 not found", err.Error())
}

func TestErrorHelpers_SeeThroughWrapping(t *testing.T) {
	fetch := eris.Wrap(&FetchError{URL: "u", Status: 500}, "load dataset")
	parse := eris.Wrap(&ParseError{Source: "world.topo.json", Err: errors.New("bad json")}, "load topology")
	missing := eris.Wrap(&NotFoundError{What: "country topology", Key: "fr"}, "drill down")

	assert.True(t, IsFetch(fetch))
	assert.False(t, IsParse(fetch))
	assert.True(t, IsParse(parse))
	assert.False(t, IsNotFound(parse))
	assert.True(t, IsNotFound(missing))
	assert.False(t, IsFetch(nil))
}

func TestDataPoint_HasValue(t *testing.T) {
	assert.True(t, DataPoint{RegionKey: "us-ca", Value: Float(0)}.HasValue())
	assert.False(t, DataPoint{RegionKey: "us-ca"}.HasValue())
}

func TestDatasetRecord_Lookup(t *testing.T) {
	ds := DatasetRecord{Key: "gdp", Data: []DataPoint{
		{RegionKey: "us-ca", Value: Float(1)},
		{RegionKey: "us-ny", Value: Float(2)},
	}}

	p, ok := ds.Lookup("us-ny")
	assert.True(t, ok)
	assert.Equal(t, 2.0, *p.Value)

	_, ok = ds.Lookup("US-NY")
	assert.False(t, ok)
}

func TestFindDataset(t *testing.T) {
	sets := []DatasetRecord{{Key: "population"}, {Key: "gdp"}}
	assert.Equal(t, "gdp", FindDataset(sets, "gdp").Key)
	assert.Nil(t, FindDataset(sets, "area"))
}

func TestRegion_Label(t *testing.T) {
	assert.Equal(t, "France", Region{Key: "fr", Name: "France"}.Label())
	assert.Equal(t, "fr", Region{Key: "fr"}.Label())
}
