// Package status computes the status ball shown for a folder.
//
// Every job under the folder contributes the result of its newest completed
// run. Results combine worst-wins on the scale
//
//	SUCCESS < UNSTABLE < FAILURE < ABORTED < NOT_BUILT
//
// and the combined result picks the ball color. If any job is building, the
// color gains the "_anime" modifier. Nothing is cached; callers recompute on
// every render.
package status
