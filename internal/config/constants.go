// internal/config/constants.go
package config

// AppName is used for the default config directory (~/.config/quill).
const AppName = "quill"

// DefaultConfigFileName is the config file looked up under the app directory.
const DefaultConfigFileName = "config.toml"

// DefaultMaxHistory bounds the per-document undo stack.
const DefaultMaxHistory = 100

// DefaultAIModel is used when the [ai] section does not name one.
const DefaultAIModel = "gpt-4o-mini"

// SystemClipboard controls whether the OS clipboard is used by default.
const SystemClipboard = false
