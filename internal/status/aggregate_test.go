// ABOUTME: Tests for status aggregation over child jobs
// ABOUTME: Covers empty sets, running overlays, and worst-result-wins combining

package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		jobs     []Job
		code     string
		animated bool
	}{
		{
			name: "empty child set",
			jobs: nil,
			code: "notbuilt",
		},
		{
			name: "single successful job",
			jobs: []Job{
				{Name: "a", Buildable: true, Runs: []Run{{Number: 1, Result: ResultSuccess}}},
			},
			code: "blue",
		},
		{
			name: "running with previous success",
			jobs: []Job{
				{Name: "a", Buildable: true, Runs: []Run{
					{Number: 2, Building: true},
					{Number: 1, Result: ResultSuccess},
				}},
			},
			code:     "blue_anime",
			animated: true,
		},
		{
			name: "only run is in progress",
			jobs: []Job{
				{Name: "a", Buildable: true, Runs: []Run{{Number: 1, Building: true}}},
			},
			code:     "notbuilt_anime",
			animated: true,
		},
		{
			name: "success and failure",
			jobs: []Job{
				{Name: "a", Buildable: true, Runs: []Run{{Number: 3, Result: ResultSuccess}}},
				{Name: "b", Buildable: true, Runs: []Run{{Number: 7, Result: ResultFailure}}},
			},
			code: "red",
		},
		{
			name: "never built",
			jobs: []Job{
				{Name: "a", Buildable: true},
			},
			code: "notbuilt",
		},
		{
			name: "disabled jobs are ignored",
			jobs: []Job{
				{Name: "a", Buildable: false, Runs: []Run{{Number: 1, Result: ResultFailure}}},
				{Name: "b", Buildable: true, Runs: []Run{{Number: 1, Result: ResultUnstable}}},
			},
			code: "yellow",
		},
		{
			name: "only disabled jobs",
			jobs: []Job{
				{Name: "a", Buildable: false, Runs: []Run{{Number: 1, Result: ResultSuccess}}},
			},
			code: "notbuilt",
		},
		{
			name: "steps back over several building runs",
			jobs: []Job{
				{Name: "a", Buildable: true, Runs: []Run{
					{Number: 5, Building: true},
					{Number: 4, Building: true},
					{Number: 3, Result: ResultAborted},
				}},
			},
			code:     "aborted_anime",
			animated: true,
		},
		{
			name: "running job does not hide another job's failure",
			jobs: []Job{
				{Name: "a", Buildable: true, Runs: []Run{{Number: 1, Building: true}}},
				{Name: "b", Buildable: true, Runs: []Run{{Number: 2, Result: ResultFailure}}},
			},
			code:     "red_anime",
			animated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := Compute(tt.jobs)
			assert.Equal(t, tt.code, agg.Code())
			assert.Equal(t, tt.animated, agg.Animated())
		})
	}
}

func TestCompute_Flags(t *testing.T) {
	agg := Compute(nil)
	assert.True(t, agg.Empty)
	assert.False(t, agg.Buildable)
	assert.Equal(t, ResultNone, agg.Combined)

	agg = Compute([]Job{{Name: "a", Buildable: false}})
	assert.False(t, agg.Empty)
	assert.False(t, agg.Buildable)
	assert.Equal(t, ColorNotBuilt, agg.Color())
}

func TestCombine(t *testing.T) {
	assert.Equal(t, ResultFailure, Combine(ResultSuccess, ResultFailure))
	assert.Equal(t, ResultFailure, Combine(ResultFailure, ResultSuccess))
	assert.Equal(t, ResultNotBuilt, Combine(ResultAborted, ResultNotBuilt))
	assert.Equal(t, ResultUnstable, Combine(ResultNone, ResultUnstable))
	assert.Equal(t, ResultUnstable, Combine(ResultUnstable, ResultNone))
	assert.Equal(t, ResultNone, Combine(ResultNone, ResultNone))

	// associativity over the whole scale
	all := []Result{ResultNone, ResultSuccess, ResultUnstable, ResultFailure, ResultAborted, ResultNotBuilt}
	for _, a := range all {
		for _, b := range all {
			for _, c := range all {
				assert.Equal(t, Combine(Combine(a, b), c), Combine(a, Combine(b, c)))
			}
		}
	}
}

func TestParseResult(t *testing.T) {
	r, err := ParseResult("failure")
	require.NoError(t, err)
	assert.Equal(t, ResultFailure, r)

	r, err = ParseResult("")
	require.NoError(t, err)
	assert.Equal(t, ResultNone, r)

	_, err = ParseResult("exploded")
	assert.Error(t, err)
}

func TestFilterJobs(t *testing.T) {
	jobs := []Job{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	assert.Len(t, FilterJobs(jobs, nil), 3)

	got := FilterJobs(jobs, []string{"c", "a", "missing"})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "c", got[1].Name)
}
