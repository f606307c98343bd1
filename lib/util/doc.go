// Package util provides small helpers shared by the workload generator and
// the command line tools: seed generation and fixed-width decimal encoding.
package util
