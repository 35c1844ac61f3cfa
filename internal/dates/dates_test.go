package dates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/cv-parser/internal/vocab"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	return NewParser(vocab.MustDefault())
}

func TestParse(t *testing.T) {
	p := newParser(t)

	tests := []struct {
		in   string
		want string
	}{
		{"03/2019", "2019-03"},
		{"2019-03", "2019-03"},
		{"2019", "2019"},
		{"Mar. 2019", "2019-03"},
		{"gennaio 2020", "2020-01"},
		{"Février 2018", "2018-02"},
		{"12 Dec 2021", "2021-12-12"},
		{"mar '19", "2019-03"},
		{"05/11/1990", "1990-11-05"},
		{"11/25/1990", "1990-11-25"},
		{"2020.07.01", "2020-07-01"},
		{"Present", "present"},
		{"ad oggi", "present"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, ok := p.Parse(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, d.String())
		})
	}

	for _, bad := range []string{"", "hello", "13/2019", "1700", "Marzo"} {
		_, ok := p.Parse(bad)
		assert.False(t, ok, bad)
	}
}

func TestFindRange(t *testing.T) {
	p := newParser(t)

	tests := []struct {
		line, start, end, before string
	}{
		{"Software Engineer @ ACME  03/2019 – 05/2021", "2019-03", "2021-05", "Software Engineer @ ACME  "},
		{"2015-2018 Università di Bologna", "2015", "2018", ""},
		{"Gen 2020 - oggi", "2020-01", "present", ""},
		{"From January 2018 to December 2020", "2018-01", "2020-12", "From "},
		{"dal 2012 al 2014", "2012", "2014", "dal "},
		{"Jun 2016 — Present", "2016-06", "present", ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r, ok := p.FindRange(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.start, r.Start.String())
			assert.Equal(t, tt.end, r.End.String())
			assert.Equal(t, tt.before, r.Before)
		})
	}

	_, ok := p.FindRange("Tel. +39 051 2019 2020")
	assert.False(t, ok)
	_, ok = p.FindRange("2021 - 2019")
	assert.False(t, ok)
}

func TestFindDate(t *testing.T) {
	p := newParser(t)
	r, ok := p.FindDate("AWS Solutions Architect, Amazon, June 2022")
	require.True(t, ok)
	assert.Equal(t, "2022-06", r.Start.String())
	assert.Equal(t, "AWS Solutions Architect, Amazon, ", r.Before)
	assert.True(t, r.End.IsZero())
}

func TestOverlaps(t *testing.T) {
	p := newParser(t)
	a, _ := p.FindRange("2018 - 2020")
	b, _ := p.FindRange("06/2020 - present")
	c, _ := p.FindRange("2021 - 2022")
	assert.True(t, a.Overlaps(b))
	assert.True(t, b.Overlaps(c))
	assert.False(t, a.Overlaps(c))
	assert.False(t, a.Overlaps(Range{}))
}

func TestDMY(t *testing.T) {
	assert.Equal(t, "05/03/1990", Date{Year: 1990, Month: 3, Day: 5}.DMY())
	assert.Equal(t, "1990-03", Date{Year: 1990, Month: 3}.DMY())
}
