// Package document reads and edits the dashboard document: a JSON object
// whose "panels" array holds one entry per dashboard panel.
//
// The document is kept as raw bytes. Reads go through typed accessors on
// [Panel]; the only mutation, [Document.SetRange], edits the bytes in place
// so that fields this package does not know about survive a write untouched.
package document
