package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvedOpinionSet_Winner(t *testing.T) {
	set := ResolvedOpinionSet{
		Path:     "/x",
		Property: "p",
		Layers: []Layer{
			{Identifier: "a.usda", Rank: 0},
			{Identifier: "b.usda", Rank: 1},
		},
	}

	assert.Equal(t, "a.usda", set.Winner().Identifier)
	assert.True(t, set.Contributes("b.usda"))
	assert.False(t, set.Contributes("c.usda"))
	assert.Equal(t, Layer{}, ResolvedOpinionSet{}.Winner())
}

func TestOpinion_SampleTimes(t *testing.T) {
	op := Opinion{Samples: []TimeSample{
		{Time: 0, Value: FloatValue(1)},
		{Time: 2.5, Value: FloatValue(2)},
	}}

	assert.True(t, op.IsTimeVarying())
	assert.True(t, op.HasValue())
	assert.Equal(t, []TimeCode{0, 2.5}, op.SampleTimes())
	assert.False(t, Opinion{}.HasValue())
}

func TestMetadata_Get(t *testing.T) {
	md := Metadata{{Key: "kind", Value: TokenValue("component")}}

	v, ok := md.Get("kind")
	assert.True(t, ok)
	assert.Equal(t, "component", v.String())

	_, ok = md.Get("missing")
	assert.False(t, ok)
}

func TestTimeRange_Clamp(t *testing.T) {
	r := TimeRange{Start: 1, End: 10}
	assert.Equal(t, TimeCode(1), r.Clamp(-5))
	assert.Equal(t, TimeCode(10), r.Clamp(50))
	assert.Equal(t, TimeCode(4.5), r.Clamp(4.5))
	assert.Equal(t, TimeCode(-5), TimeRange{}.Clamp(-5))
}

func TestAppSettings_Validate(t *testing.T) {
	assert.NoError(t, DefaultAppSettings().Validate())

	s := DefaultAppSettings()
	s.Engine.Workers = 0
	assert.ErrorIs(t, s.Validate(), ErrInvalidInput)

	s = DefaultAppSettings()
	s.Timeline.Step = 0
	assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
}
