// Package scheduling groups background execution utilities.
//
// The janitor subpackage runs periodic maintenance jobs, such as rate
// limiter window pruning, under an explicit Start/Stop lifecycle.
package scheduling
