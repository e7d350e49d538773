package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyCollection = "collection"
	KeyLang       = "lang"
	KeyItem       = "item"
	KeyPath       = "path"
	KeyAsset      = "asset"
	KeyCount      = "count"
	KeyBuildID    = "build_id"
	KeyURL        = "url"
	KeyError      = "error"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyTrigger    = "trigger"
	KeyRemoteAddr = "remote_addr"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Collection(c string) slog.Attr    { return slog.String(KeyCollection, c) }
func Lang(code string) slog.Attr       { return slog.String(KeyLang, code) }
func Item(id string) slog.Attr         { return slog.String(KeyItem, id) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Asset(name string) slog.Attr      { return slog.String(KeyAsset, name) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func Trigger(t string) slog.Attr       { return slog.String(KeyTrigger, t) }
func RemoteAddr(a string) slog.Attr    { return slog.String(KeyRemoteAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
