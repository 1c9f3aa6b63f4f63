// ABOUTME: Aggregates child job results into a single status ball state
// ABOUTME: Pure function of current job state, recomputed on every query

package status

// Run is a single build of a job.
type Run struct {
	Number   int
	Result   Result
	Building bool
}

// Job is a runnable child of a folder as seen by the aggregator.
// Runs are ordered newest first.
type Job struct {
	Name      string
	Buildable bool
	Runs      []Run
}

// Aggregate is the combined state of a set of jobs.
type Aggregate struct {
	Empty     bool
	Buildable bool
	Running   bool
	Combined  Result
}

// Compute walks jobs and folds their latest completed results into one Aggregate.
// A job whose newest run is still building marks the aggregate running and
// contributes the result of its previous completed run instead, if any.
func Compute(jobs []Job) Aggregate {
	agg := Aggregate{Empty: true}

	for _, job := range jobs {
		agg.Empty = false
		if !job.Buildable {
			continue
		}
		agg.Buildable = true

		run := lastRun(job)
		if run != nil && run.Building {
			agg.Running = true
			run = previousCompleted(job, run)
		}
		if run == nil {
			continue
		}
		agg.Combined = Combine(agg.Combined, run.Result)
	}

	return agg
}

// Color returns the base ball color of the aggregate.
func (a Aggregate) Color() BallColor {
	if a.Combined != ResultNone {
		return a.Combined.Color()
	}
	// No child has ever completed, there are none, or none is buildable.
	return ColorNotBuilt
}

// Animated reports whether any contributing job is currently running.
func (a Aggregate) Animated() bool {
	return a.Running
}

// Code is the renderable status code, e.g. "blue" or "red_anime".
func (a Aggregate) Code() string {
	return a.Color().Code(a.Animated())
}

// FilterJobs keeps only the jobs whose names are listed.
// An empty filter keeps every job.
func FilterJobs(jobs []Job, names []string) []Job {
	if len(names) == 0 {
		return jobs
	}

	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}

	filtered := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if _, ok := wanted[j.Name]; ok {
			filtered = append(filtered, j)
		}
	}
	return filtered
}

func lastRun(job Job) *Run {
	if len(job.Runs) == 0 {
		return nil
	}
	return &job.Runs[0]
}

// previousCompleted returns the newest completed run older than run, or nil.
func previousCompleted(job Job, run *Run) *Run {
	for i := range job.Runs {
		r := &job.Runs[i]
		if r.Number >= run.Number || r.Building {
			continue
		}
		return r
	}
	return nil
}
