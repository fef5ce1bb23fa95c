package graph

import "errors"

var (
	ErrPointNotFound  = errors.New("point not found")
	ErrSplineNotFound = errors.New("spline not found")
	ErrEmptySpline    = errors.New("spline has no points")
	ErrPointInUse     = errors.New("point is still referenced by a spline")
	ErrNotEndpoint    = errors.New("point is not the first or last point of any spline")

	// ErrLocked is returned by the editor while drawing is disabled (enhance mode).
	ErrLocked = errors.New("editor is locked")
)
