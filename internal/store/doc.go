// Package store owns the dashboard document file.
//
// [FileStore] reads the document on every call and writes range updates back
// atomically, one writer at a time. Successful updates, and edits made to the
// file by other programs, are published as [ChangeEvent] values through a
// [Broker] so connected clients can refresh.
//
// Users of the solarboard library should not need to interact with this
// package directly.
package store
