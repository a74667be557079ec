// Package dataset loads flashcard categories from a directory of files.
// Each file is one category, named after the file's base name. JSON and
// YAML files use the cz_*/ua_* record keys, plain text files hold one
// "czech = ukrainian" pair per line.
package dataset
