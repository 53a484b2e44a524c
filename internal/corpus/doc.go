// Package corpus turns files and directories into extractor documents.
//
// Text is read as UTF-8; files that are not valid UTF-8 are decoded as
// Windows-1252, the encoding most Brazilian contract exports use. Each
// document is labelled with a distributor either from a fixed label or from
// the name of the directory holding it.
package corpus
