package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"market-cutover/pkg/model"
)

func results(pass, warning, fail int) []model.ValidationResult {
	var out []model.ValidationResult
	for i := 0; i < pass; i++ {
		out = append(out, model.ValidationResult{Status: model.ValidationPass})
	}
	for i := 0; i < warning; i++ {
		out = append(out, model.ValidationResult{Status: model.ValidationWarning})
	}
	for i := 0; i < fail; i++ {
		out = append(out, model.ValidationResult{Status: model.ValidationFail})
	}
	return out
}

func TestScore(t *testing.T) {
	cases := map[string]struct {
		pass, warning, fail int
		want                int
	}{
		"empty":          {0, 0, 0, 0},
		"all pass":       {4, 0, 0, 100},
		"all fail":       {0, 0, 3, 0},
		"below gate":     {69, 0, 31, 69},
		"at gate":        {70, 0, 30, 70},
		"warnings half":  {0, 2, 0, 50},
		"rounds half up": {1, 1, 2, 38},
		"mixed":          {7, 2, 1, 80},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Score(results(tc.pass, tc.warning, tc.fail)))
		})
	}
}

func TestCountByStatus(t *testing.T) {
	got := CountByStatus(results(2, 1, 3))
	assert.Equal(t, 2, got[model.ValidationPass])
	assert.Equal(t, 1, got[model.ValidationWarning])
	assert.Equal(t, 3, got[model.ValidationFail])
}
