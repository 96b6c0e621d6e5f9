// Package textutil holds the file name helpers shared by the exporters and
// the CLI: filesystem-safe sanitizing, deterministic export stems (NFC
// normalized, commas stripped), and human-friendly display names.
package textutil
