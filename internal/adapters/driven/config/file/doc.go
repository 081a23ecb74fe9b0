// Package file loads the soapnotes configuration from a TOML file.
//
// Values are layered: struct defaults, then the file, then environment
// overrides for secrets. The result is validated before use.
package file
