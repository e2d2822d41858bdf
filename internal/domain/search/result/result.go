package result

import "github.com/campusquest/coursedex/internal/domain/course"

// Result is a single ranked search hit: a course paired with its
// cosine similarity score against the query embedding.
type Result struct {
	course course.Course
	score  float64
}

// New creates a search result.
func New(c course.Course, score float64) Result {
	return Result{course: c, score: score}
}

// ID returns the course identifier.
func (r *Result) ID() string { return r.course.ID() }

// Score returns the cosine similarity score in [-1, 1].
func (r *Result) Score() float64 { return r.score }

// Course returns the underlying catalog record.
func (r *Result) Course() course.Course { return r.course }
