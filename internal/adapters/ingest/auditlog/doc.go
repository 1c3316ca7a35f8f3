// Package auditlog handles reading Vault audit log files line-by-line
//
// Design choices:
// - Transparent decompression: extension first (.gz/.zst), then magic-byte
//   sniffing for extensionless files; decompression is always streaming.
// - Stream with bufio.Scanner but with a 16MB cap to reliably handle huge
//   response payloads embedded in a single line.
// - Malformed lines are counted, never fatal; accounting is exact
//   (lines == events + failures).
// - Decode into partial structs so unknown audit fields are ignored.
package auditlog
