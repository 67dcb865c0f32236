// Package sample turns compiled expressions into numeric point sets.
//
// Domains describe closed parameter intervals. Samplers evaluate a vector
// function over a grid, a single interval or explicit coordinates and
// return positions as an (N, 3) matrix. Constant channels are broadcast to
// the sample count.
package sample
