package logging

// Guard applies the pipeline's error regime. In tolerant mode a failure is
// logged at error level and swallowed so the caller can skip the page or row
// at hand; in strict mode the first failure is returned unchanged.
type Guard struct {
	Log    *Logger
	Strict bool
}

// Handle logs err and returns it only in strict mode. A nil err is a no-op.
func (g Guard) Handle(err error, msg string, keyvals ...interface{}) error {
	if err == nil {
		return nil
	}
	g.Log.Error(msg, append(keyvals, "err", err)...)
	if g.Strict {
		return err
	}
	return nil
}
