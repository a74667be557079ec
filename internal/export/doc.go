// Package export turns a category's translation list into a plain-text
// payload with user-chosen field and record separators and packages it
// as a downloadable file.
package export
