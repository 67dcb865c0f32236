// Package queryir is the query representation for the history database.
//
// A history query is a Select over one table with an optional filter
// built from Equals and And predicates:
//
//	[--where flags] -> [Query IR] -> [querysql] -> SQLite
//
// The IR knows the filterable columns of each table and their kinds, so a
// query can be checked with Validate before any SQL is produced. Values
// are restricted to string, int64 and bool. There are no NULLs, no
// joins and no ordering options: every compiled query is ordered by seq
// then id.
package queryir
