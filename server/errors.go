package server

// BindError reports that the server could not parse or bind its address.
// It is fatal to the serving task.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return "server: bind " + e.Addr + ": " + e.Err.Error()
}

func (e *BindError) Unwrap() error {
	return e.Err
}
