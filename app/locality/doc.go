// Package locality turns the loosely shaped venue and location fields of a
// candidate record into a canonical venue and one of the cities the app
// filters by.
package locality
